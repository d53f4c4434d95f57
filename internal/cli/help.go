package cli

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var (
	helpSectionRe = regexp.MustCompile(`^[A-Z][A-Za-z ]+:$`)
	helpFlagRe    = regexp.MustCompile(`^( +)(-.+?)( {2,}.*)$`)
	helpEntryRe   = regexp.MustCompile(`^(  )(\S+)(\s{2,}.*)$`)
)

// helpFunc renders cobra's usage text with the CLI palette applied.
func helpFunc(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()

	var raw strings.Builder
	cmd.SetOut(&raw)
	cmd.InitDefaultHelpFlag()
	_ = cmd.Usage()
	cmd.SetOut(out)

	if cmd.Long != "" {
		cmd.Println(Text(strings.TrimSpace(cmd.Long)) + "\n")
	} else if cmd.Short != "" {
		cmd.Println(Text(cmd.Short) + "\n")
	}

	lines := strings.Split(strings.TrimRight(raw.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = styleHelpLine(line)
	}
	cmd.Println(strings.Join(lines, "\n"))
}

func styleHelpLine(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case helpSectionRe.MatchString(trimmed):
		return Info(line)
	case strings.HasPrefix(trimmed, `Use "`):
		return Silent(line)
	}
	if m := helpFlagRe.FindStringSubmatch(line); m != nil {
		return m[1] + Primary(m[2]) + Text(m[3])
	}
	if m := helpEntryRe.FindStringSubmatch(line); m != nil {
		return m[1] + Primary(m[2]) + Text(m[3])
	}
	return Text(line)
}
