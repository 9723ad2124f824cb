// Package comparison runs one predicted/ground truth comparison end to end.
//
// A Comparator resolves the pair, loads and annotates both scores, calls the
// diff engine exactly once with the predicted score first, writes the JSON
// report and, when requested, marks and renders both documents to PDF. Any
// failure before the report is written leaves the results root untouched.
package comparison
