package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// shellHook describes where a shell keeps its startup file and the line that
// loads logbook's completions from it.
type shellHook struct {
	rcFile string // relative to the home directory
	load   string
}

var shellHooks = map[string]shellHook{
	"bash":       {rcFile: ".bashrc", load: `eval "$(logbook completion generate bash)"`},
	"zsh":        {rcFile: ".zshrc", load: `eval "$(logbook completion generate zsh)"`},
	"fish":       {rcFile: ".config/fish/config.fish", load: `logbook completion generate fish | source`},
	"powershell": {rcFile: ".config/powershell/Microsoft.PowerShell_profile.ps1", load: `logbook completion generate powershell | Out-String | Invoke-Expression`},
}

// hookMarker identifies an installed hook in any shell's rc file.
const hookMarker = "logbook completion generate"

var completionCmd = GroupCommand{
	Use:   "completion",
	Short: "Generate or install shell completions",
	Subcommands: []*cobra.Command{
		completionGenerateCmd,
		completionInstallCmd,
	},
}.Build()

var completionGenerateCmd = func() *cobra.Command {
	cmd := LeafCommand{
		Use:   "generate [shell]",
		Short: "Print the completion script for a shell",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := shellArg(args)
			if err != nil {
				return err
			}
			return runCompletionGenerate(cmd, shell)
		},
	}.Build()
	cmd.ValidArgs = shellNames()
	return cmd
}()

var completionInstallCmd = LeafCommand{
	Use:   "install [shell]",
	Short: "Load completions from your shell's startup file",
	Args:  cobra.MaximumNArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "yes", Shorthand: "y", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		shell, err := shellArg(args)
		if err != nil {
			return err
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		confirm := NewConfirmFunc()
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			confirm = AlwaysYes()
		}
		return runCompletionInstall(cmd, shell, homeDir, confirm)
	},
}.Build()

func shellNames() []string {
	return []string{"bash", "zsh", "fish", "powershell"}
}

// shellArg returns the explicit shell argument or the one named by $SHELL.
func shellArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if shell := detectShell(); shell != "" {
		return shell, nil
	}
	return "", fmt.Errorf("cannot tell your shell from $SHELL, name it explicitly (%s)", strings.Join(shellNames(), ", "))
}

func detectShell() string {
	name := filepath.Base(os.Getenv("SHELL"))
	switch name {
	case "bash", "zsh", "fish":
		return name
	}
	return ""
}

func runCompletionGenerate(cmd *cobra.Command, shell string) error {
	root, out := cmd.Root(), cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletion(out)
	}
	return fmt.Errorf("unsupported shell %q (expected %s)", shell, strings.Join(shellNames(), ", "))
}

func runCompletionInstall(cmd *cobra.Command, shell, homeDir string, confirm ConfirmFunc) error {
	hook, ok := shellHooks[shell]
	if !ok {
		return fmt.Errorf("unsupported shell %q (expected %s)", shell, strings.Join(shellNames(), ", "))
	}
	display := filepath.Join("~", hook.rcFile)
	w := cmd.OutOrStdout()

	if hookInstalled(hook, homeDir) {
		_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("completions for %s are already loaded from %s", Primary(shell), Primary(display))))
		return nil
	}

	ok, err := confirm(fmt.Sprintf("Add logbook completions to %s?", display))
	if err != nil || !ok {
		return err
	}

	if err := appendHook(hook, homeDir); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("completions for %s added to %s, open a new shell to use them", Primary(shell), Primary(display))))
	return nil
}

func hookInstalled(hook shellHook, homeDir string) bool {
	data, err := os.ReadFile(filepath.Join(homeDir, hook.rcFile))
	return err == nil && strings.Contains(string(data), hookMarker)
}

func appendHook(hook shellHook, homeDir string) error {
	path := filepath.Join(homeDir, hook.rcFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(f, "\n# logbook shell completion\n%s\n", hook.load)
	if cerr := f.Close(); cerr != nil {
		return cerr
	}
	return werr
}
