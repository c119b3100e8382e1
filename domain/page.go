package domain

// TaskPage is a single page of a larger task listing together with its
// pagination metadata. Items never exceeds PageSize.
type TaskPage struct {
	Items      []Task `json:"items"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
	PageIndex  int    `json:"page_index"`
	PageSize   int    `json:"page_size"`
	First      bool   `json:"first"`
	Last       bool   `json:"last"`
}

// Empty reports whether the page holds no tasks.
func (p *TaskPage) Empty() bool {
	return p == nil || len(p.Items) == 0
}
