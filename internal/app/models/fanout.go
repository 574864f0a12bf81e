package models

// FanoutResult reports the outcome of a primary write followed by best-effort derived writes.
// A failed fan-out never undoes the primary write.
type FanoutResult struct {
	PrimaryWriteOK bool
	FanoutOK       bool
	Attempted      int
	Delivered      int
	FanoutErrors   []error
}

// RecordBatch accounts for one derived write batch of size n.
func (r *FanoutResult) RecordBatch(n int, err error) {
	r.Attempted += n
	if err != nil {
		r.FanoutOK = false
		r.FanoutErrors = append(r.FanoutErrors, err)
		return
	}
	r.Delivered += n
}
