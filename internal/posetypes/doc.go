// Package posetypes classifies library entries by file extension.
//
// It is the dependency-free foundation shared by the indexer and the image
// resolver, so it can be imported anywhere without creating import cycles.
//
// # Kinds
//
//	posetypes.KindDocument // .pose and .cmp files
//	posetypes.KindImage    // .jpg, .jpeg, .png and .gif previews
//	posetypes.KindOther    // everything else, silently skipped
//
// # Usage
//
//	switch posetypes.Classify(name) {
//	case posetypes.KindDocument:
//	    // index it
//	case posetypes.KindImage:
//	    // candidate preview
//	}
//
// Matching is case-insensitive: "Pose1.POSE" is a document.
package posetypes
