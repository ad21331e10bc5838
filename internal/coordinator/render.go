package coordinator

import (
	"strconv"
	"strings"
)

// RenderRunningJobs builds the external JSON status document by hand: the
// contract fixes key order, the bare-number time field, and an escaping
// rule (newline becomes "<br>") that encoding/json cannot express.
func RenderRunningJobs(jobs []JobStatusRecord) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, job := range jobs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("{")
		sb.WriteString(`"jobid": "` + EscapeString(job.JobID.String()) + `",`)
		if job.JobName != "" {
			sb.WriteString(`"jobname": "` + EscapeString(job.JobName) + `",`)
		}
		sb.WriteString(`"status": "` + EscapeString(job.State) + `",`)
		sb.WriteString(`"time": ` + strconv.FormatInt(job.StateTimestampMillis, 10))
		sb.WriteString("}")
	}
	sb.WriteString("]")
	return sb.String()
}

// EscapeString escapes free text for the status document. Newlines become
// the literal "<br>" so multi-line names stay displayable in HTML
// consumers; control characters below 0x20 without a mapping are dropped.
func EscapeString(str string) string {
	var sb strings.Builder
	sb.Grow(len(str))
	for _, c := range str {
		switch c {
		case '\\', '"', '/':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString("<br>")
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if c < ' ' {
				// unreadable, throw away
				continue
			}
			sb.WriteRune(c)
		}
	}
	return sb.String()
}
