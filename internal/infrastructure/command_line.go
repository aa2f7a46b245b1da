package infrastructure

import "strings"

// shellSpecialChars need quoting when a command line is displayed
const shellSpecialChars = " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"

// QuoteArg quotes one argument for display in a log line. Processes are
// always spawned with an argv slice, so this never feeds a shell.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// FormatCommandLine renders binary and args as a copy-pastable command line
func FormatCommandLine(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(QuoteArg(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(QuoteArg(arg))
	}
	return b.String()
}
