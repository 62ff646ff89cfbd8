// Package ignore provides path filtering for amanpack.
//
// Matcher implements gitignore semantics and backs both .gitignore and
// .amanpackignore files:
//
//	m := ignore.New()
//	_ = m.AddFromFile("/path/to/project/.gitignore", "")
//	_ = m.AddFromFile("/path/to/project/src/.gitignore", "src")
//
//	if m.Match("src/gen/api.pb.go", false) {
//	    // skipped
//	}
//
// Patterns is a flat list of glob patterns used for the include and
// exclude lists from configuration. Both are compiled with gobwas/glob
// using '/' as the separator, so '*' never crosses a directory boundary
// and '**' does.
package ignore
