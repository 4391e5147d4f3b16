package main

// stripArgsSeparator removes a standalone "--" and returns the args that should be
// forwarded to the MongoDB binary. Arguments before "--" are preserved.
func stripArgsSeparator(args []string) []string {
	passArgs := []string{}
	for i, arg := range args {
		if arg == "--" {
			passArgs = append(passArgs, args[i+1:]...)
			break
		}
		passArgs = append(passArgs, arg)
	}
	return passArgs
}

// firstArg returns args[0], or "" when there is none.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
