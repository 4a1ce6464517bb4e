package merge

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Resolver maps a string table offset to its content hash.
type Resolver interface {
	HashForOffset(offset int) (string, bool)
}

const commentSeparator = " // "

// ParseCandidates reads one candidate file into the diff. Each line is
// "<offset>:<text>", optionally followed by " // <comment>". Blank
// lines and lines starting with "#" are skipped. Malformed lines and
// offsets the resolver does not know are logged and dropped so one bad
// line never aborts an import.
func ParseCandidates(d *Diff, filename string, content []byte, res Resolver) error {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			log.Warn().Str("file", filename).Int("line", lineNo).Msg("candidate line has no offset separator, skipping")
			continue
		}
		offset, err := strconv.Atoi(strings.TrimSpace(line[:colon]))
		if err != nil {
			log.Warn().Str("file", filename).Int("line", lineNo).Msg("candidate line has no numeric offset, skipping")
			continue
		}
		text := line[colon+1:]
		comment := ""
		if idx := strings.LastIndex(text, commentSeparator); idx >= 0 {
			comment = strings.TrimSpace(text[idx+len(commentSeparator):])
			text = text[:idx]
		}
		hash, ok := res.HashForOffset(offset)
		if !ok {
			log.Warn().Str("file", filename).Int("line", lineNo).Int("offset", offset).Msg("candidate offset not in string table, skipping")
			continue
		}
		d.add(hash, Entry{
			Filename:       filename,
			Line:           lineNo,
			Offset:         offset,
			TranslatedText: text,
			Comment:        comment,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read candidates %s: %w", filename, err)
	}
	return nil
}
