// Package core defines the typed node model for decoded .note property-list
// content, and the binary property-list deserializer that produces it.
//
// A .note document's Session.plist is a keyed-archiver binary plist: a flat
// table of typed values in which container members point at other table
// entries by index. This package only turns bytes into Node trees; reference
// (UID) resolution against the object table lives in the graph package.
package core
