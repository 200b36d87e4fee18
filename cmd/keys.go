package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

// secretVars are the keys `turnos keys` generates, all 32 random bytes.
// PATIENT_DATA_KEY is optional; leaving it out keeps clinical notes in clear text.
var secretVars = []string{"COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY", "PATIENT_DATA_KEY"}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate base64 values for the session cookie and patient data keys",
		Long: "Prints one KEY=value line per secret, ready for a .env file.\n" +
			"Rotating PATIENT_DATA_KEY makes notes sealed with the old key unreadable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range secretVars {
				key := make([]byte, 32)
				if _, err := rand.Read(key); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(out, "%s=%s\n", name, base64.StdEncoding.EncodeToString(key))
			}
			return nil
		},
	}
}
