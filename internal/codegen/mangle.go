package codegen

// Mangle produces the link symbol for a Qi identifier. User functions
// are emitted with their exact identifier text, CJK ideographs
// included, since the target IR and object-file formats accept them
// as symbol names directly. The sole exception is the entry function
// 主 ("zhǔ", "host/main"), which always mangles to the
// platform-conventional `main` so the loader finds it without a
// custom entry-point flag.
func Mangle(qualifiedName string) string {
	if qualifiedName == "主" {
		return "main"
	}
	return qualifiedName
}

// MangleMethod mangles a trait/struct method name, qualifying it with
// the receiver type so two types may both define a method of the same
// name without collision.
func MangleMethod(typeName, methodName string) string {
	return Mangle(typeName + "." + methodName)
}
