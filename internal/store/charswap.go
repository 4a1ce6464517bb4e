package store

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// ParseCharswap reads a charswap config: one src,dst pair per line,
// fields trimmed. Pairs without exactly two single-character fields are
// skipped with a diagnostic.
func ParseCharswap(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			log.Warn().Int("line", lineNum).Str("entry", line).Msg("Invalid charswap entry, skipping")
			continue
		}
		src := strings.TrimSpace(fields[0])
		dst := strings.TrimSpace(fields[1])
		if utf8.RuneCountInString(src) != 1 || utf8.RuneCountInString(dst) != 1 {
			log.Warn().Int("line", lineNum).Str("entry", line).Msg("Charswap fields must be single characters, skipping")
			continue
		}
		out[src] = dst
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read charswap config: %w", err)
	}
	return out, nil
}
