package usecase

// Pagination carries the page metadata returned alongside every listing.
// NextPage and PrevPage are pointers so the JSON fields disappear entirely
// when there is no such page, rather than reading as page zero.
type Pagination struct {
	TotalCount  int  `json:"total_count"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	NextPage    *int `json:"next_page,omitempty"`
	PrevPage    *int `json:"prev_page,omitempty"`
}

// Paginate derives page metadata from a total count and an offset/limit
// window. total_pages is ceil(totalCount/limit) in integer arithmetic and an
// empty result set yields zero pages but stays on page one.
func Paginate(totalCount, limit, offset int) Pagination {
	totalPages := (totalCount + limit - 1) / limit
	currentPage := (offset / limit) + 1

	p := Pagination{
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		PerPage:     limit,
		HasNext:     offset+limit < totalCount,
		HasPrev:     offset > 0,
	}

	if p.HasNext {
		next := currentPage + 1
		p.NextPage = &next
	}
	if p.HasPrev {
		prev := currentPage - 1
		p.PrevPage = &prev
	}

	return p
}
