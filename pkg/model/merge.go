package model

// Merge builds candidates in provider merge order: authors first, then posts.
// Records failing validation are dropped and counted.
func Merge(authors []AuthorRecord, posts []PostRecord) (out []Candidate, dropped int) {
	out = make([]Candidate, 0, len(authors)+len(posts))
	for _, r := range authors {
		a, err := NewAuthor(r)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, a)
	}
	for _, r := range posts {
		p, err := NewPost(r)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}
