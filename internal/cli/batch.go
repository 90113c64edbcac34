package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sm4desk/internal/infrastructure/logging"
	"sm4desk/internal/sm4batch"
)

const maxLineBytes = 1 << 20

func batchCmd(st *state, op string) *cobra.Command {
	var key, in, out string

	cmd := &cobra.Command{
		Use:   op,
		Short: fmt.Sprintf("SM4-%s every line of a file or stdin", op),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(cmd.ErrOrStderr(), st.cfg.EffectiveLogLevel())
			svc := sm4batch.NewService(st.cfg.DefaultKey, logger)

			lines, err := readLines(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}

			result, err := svc.ProcessLines(lines, op, key)
			if err != nil {
				return err
			}

			return writeLines(cmd.OutOrStdout(), out, result)
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "hex SM4 key (default: configured key)")
	cmd.Flags().StringVarP(&in, "in", "i", "", "input file (default: stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

func writeLines(stdout io.Writer, path string, lines []string) error {
	text := strings.Join(lines, "\n")
	if len(lines) > 0 {
		text += "\n"
	}

	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
