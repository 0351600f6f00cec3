// Package attrs contains the attribute contracts steps declare for their input, success and failure values.
//
// A contract validates a proposed set of named values and either accepts them (with defaults filled in)
// or rejects them with a reason list per attribute. Whether unknown names are rejected or silently dropped
// is a property of the contract, the execution engine never checks names itself.
//
//	var (
//		OrderID = attrs.Key[string]("order_id")
//		Retries = attrs.Key[int]("retries")
//	)
//
//	input := attrs.New(
//		OrderID.Required(),
//		Retries.Optional(attrs.Default(3)),
//		attrs.Unknown(attrs.Drop),
//	)
package attrs
