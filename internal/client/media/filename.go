package media

import (
	"mime"
	"net/url"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
)

// filenamePattern is the lenient fallback for headers mime.ParseMediaType
// rejects, e.g. unquoted names with spaces or a missing disposition type.
var filenamePattern = regexp.MustCompile(`(?i)filename\*?\s*=\s*(?:UTF-8'[^']*')?("[^"]*"|'[^']*'|[^;\r\n]+)`)

var extendedParam = regexp.MustCompile(`(?i)filename\*\s*=`)

// ExtractFilename returns the file name announced in a Content-Disposition
// header value, or "processed_file" when there is none.
func ExtractFilename(contentDisposition string) string {
	if strings.TrimSpace(contentDisposition) == "" {
		return common.DefaultFilename
	}

	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		// ParseMediaType has already percent-decoded an extended filename*.
		decoded := extendedParam.MatchString(contentDisposition)
		if name := cleanFilename(params["filename"], !decoded); name != "" {
			return name
		}
	}

	// filename* wins over filename when both are present
	var name string
	for _, m := range filenamePattern.FindAllStringSubmatch(contentDisposition, -1) {
		isExt := strings.Contains(strings.ToLower(m[0][:strings.Index(m[0], "=")]), "*")
		if name == "" || isExt {
			name = m[1]
		}
		if isExt {
			break
		}
	}
	if name = cleanFilename(name, true); name != "" {
		return name
	}
	return common.DefaultFilename
}

func cleanFilename(s string, unescape bool) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if unescape && strings.Contains(s, "%") {
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}
