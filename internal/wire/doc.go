// Package wire is the binary encoding of patches and events exchanged across
// the host boundary.
//
// Layouts are little-endian and fixed. Every record starts with a kind byte
// and a version byte:
//
//	patch:  kind=0x01 version type:u8 view:16
//	        update:  node_kind:u8 (layer: 23×f64 with clip:u8 | opaque: len:u32 bytes)
//	        subview: child:16
//	        remove:  (nothing)
//	event:  kind=0x02 version category:u8 handler(view:16 category:u8) timestamp:f64 payload
//
// Discriminants the decoder does not know are reported as UNKNOWN_TAG and
// never defaulted. Short, oversized or inconsistent input is MALFORMED.
//
// Streams frame each record with a u32 length prefix; see Writer and Reader.
package wire
