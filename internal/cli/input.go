package cli

import (
	"fmt"
	"os"
	"strings"

	"hotsoonripper/pkg/textutil"
)

// maxTargetsFileSize caps how much of the targets file is read.
const maxTargetsFileSize = 1 << 20

// ParseArgs splits every argument on commas and drops blank tokens.
func ParseArgs(args []string) []string {
	var tokens []string

	for _, arg := range args {
		for tok := range strings.SplitSeq(arg, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}

	return tokens
}

// ReadTargetsFile reads tokens separated by commas or whitespace, across any number of lines.
func ReadTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	data, err := textutil.ReadAll(f, maxTargetsFileSize)
	if err != nil {
		return nil, fmt.Errorf("read targets file %s: %w", path, err)
	}

	return textutil.SplitTokens(string(data)), nil
}
