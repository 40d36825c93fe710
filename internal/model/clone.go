package model

func cloneTimestamp(t *Timestamp) *Timestamp {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	return append([]int64(nil), ids...)
}

// Clone returns a copy of s that shares no memory with it.
func (s Site) Clone() Site {
	s.CreatedAt = cloneTimestamp(s.CreatedAt)
	s.UpdatedAt = cloneTimestamp(s.UpdatedAt)
	return s
}

func (k Keyword) Clone() Keyword {
	k.CreatedAt = cloneTimestamp(k.CreatedAt)
	k.UpdatedAt = cloneTimestamp(k.UpdatedAt)
	return k
}

func (t Task) Clone() Task {
	t.SiteIDs = cloneIDs(t.SiteIDs)
	t.KeywordIDs = cloneIDs(t.KeywordIDs)
	t.LastRun = cloneTimestamp(t.LastRun)
	t.NextRun = cloneTimestamp(t.NextRun)
	t.CreatedAt = cloneTimestamp(t.CreatedAt)
	t.UpdatedAt = cloneTimestamp(t.UpdatedAt)
	return t
}

func (r Result) Clone() Result {
	r.PublishedAt = cloneTimestamp(r.PublishedAt)
	return r
}
