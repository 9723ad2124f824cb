// Package workspace resolves score identifiers against the predicted and
// ground truth roots, pairs corpus files by name, and names the artifacts a
// comparison writes under the results root.
//
// Resolution follows a fixed order so error messages are predictable: the
// identifier must be a well-formed relative path, the predicted file must
// exist and be a regular file, and the ground truth file must exist.
package workspace
