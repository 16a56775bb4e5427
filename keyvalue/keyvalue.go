// Package keyvalue carries loosely typed context for diagnostic messages.
package keyvalue

type T struct {
	Key   string
	Value string
}

// KV creates a T from a key and a value.
func KV(k, v string) T {
	return T{Key: k, Value: v}
}
