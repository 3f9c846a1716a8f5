// Package pipe holds the transformations rules chain together.
//
// Every function here has the schema.Func shape and never panics to its
// caller: on unexpected input it returns a benign default (empty string,
// empty map or slice) so that instrumentation can't break the call it
// observes.
//
// The first step of a pipeline receives the origin values as []any, even
// for a single origin. Head, Nth, Each, Prefix, SepString, ErrorMessage,
// IsError, InjectHeaders and the Ext* extractors look inside that tuple.
// Value functions such as Dump, Cut, Mask or Len take what they get, so a
// rule reading one value starts with Head.
package pipe
