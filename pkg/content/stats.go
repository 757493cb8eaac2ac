package content

// Stats holds aggregated counts for a content tree.
type Stats struct {
	Nodes      int          // Total number of nodes, directives included
	Kinds      map[Kind]int // Node count per variant
	Depth      int          // Length of the longest root-to-leaf path
	Directives int          // Number of If, Include and Ctx nodes
	Insecure   int          // Number of forms that clients must block
}

// Summarize returns statistics for a single tree.
func Summarize(c Content) Stats {
	s := Stats{Kinds: make(map[Kind]int)}
	s.add(c, 1)
	return s
}

// SummarizeSequence returns statistics for the content of a File or Response,
// counting the implicit root VLayout as depth zero.
func SummarizeSequence(nodes []Content) Stats {
	s := Stats{Kinds: make(map[Kind]int)}
	for _, n := range nodes {
		s.add(n, 1)
	}
	return s
}

func (s *Stats) add(c Content, depth int) {
	if c == nil {
		return
	}
	k := c.Kind()
	s.Nodes++
	s.Kinds[k]++
	if depth > s.Depth {
		s.Depth = depth
	}
	if k.IsDirective() {
		s.Directives++
	}
	if f, ok := c.(Form); ok && InsecureForm(f) {
		s.Insecure++
	}
	for _, child := range Children(c) {
		s.add(child, depth+1)
	}
}
