package render

import (
	"github.com/valyala/bytebufferpool"

	"github.com/omimic12/proxy6-automator/pkg"
)

const (
	strColon   = ":"
	strNewline = "\n"
)

// Lines formats records as host:port:user:pass, one per line, without a
// trailing newline. Fields are written as-is.
func Lines(records []pkg.Record) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, r := range records {
		if i > 0 {
			buf.WriteString(strNewline) //nolint:errcheck
		}
		buf.WriteString(r.Host)   //nolint:errcheck
		buf.WriteString(strColon) //nolint:errcheck
		buf.WriteString(r.Port)   //nolint:errcheck
		buf.WriteString(strColon) //nolint:errcheck
		buf.WriteString(r.User)   //nolint:errcheck
		buf.WriteString(strColon) //nolint:errcheck
		buf.WriteString(r.Pass)   //nolint:errcheck
	}

	return buf.String()
}
