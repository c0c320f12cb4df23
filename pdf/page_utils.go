package pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var whitespace = regexp.MustCompile(`\s`)

// pageRange is an inclusive run of page numbers; a single page has first == last.
type pageRange struct {
	first, last int
}

// parsePageRanges splits a page specification into ranges without expanding them.
func parsePageRanges(pages string) ([]pageRange, error) {
	// Remove all whitespace
	pages = whitespace.ReplaceAllString(pages, "")
	if pages == "" {
		return nil, fmt.Errorf("%w: empty page specification", ErrParse)
	}

	var ranges []pageRange
	for _, part := range strings.Split(pages, ",") {
		if part == "" {
			return nil, fmt.Errorf("%w: empty entry in %q", ErrParse, pages)
		}

		if strings.Contains(part, "-") {
			// Range like "1-5"
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("%w: invalid range %q", ErrParse, part)
			}

			start, err := strconv.Atoi(rangeParts[0])
			if err != nil {
				return nil, fmt.Errorf("%w: invalid start page %q", ErrParse, rangeParts[0])
			}

			end, err := strconv.Atoi(rangeParts[1])
			if err != nil {
				return nil, fmt.Errorf("%w: invalid end page %q", ErrParse, rangeParts[1])
			}

			if start > end {
				return nil, fmt.Errorf("%w: invalid range %q: start > end", ErrParse, part)
			}
			ranges = append(ranges, pageRange{first: start, last: end})
		} else {
			// Single page like "3"
			pageNum, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid page number %q", ErrParse, part)
			}
			ranges = append(ranges, pageRange{first: pageNum, last: pageNum})
		}
	}

	return ranges, nil
}

func expandRanges(ranges []pageRange) []int {
	var pageList []int
	for _, r := range ranges {
		for i := r.first; i <= r.last; i++ {
			pageList = append(pageList, i)
		}
	}
	return pageList
}

// ParsePageSpecifier parses a page specification string and returns the list of page numbers
// it names, in the order given. Supports formats: "1", "1,3", "1-5", "1,3-5,7".
// Pages are 1-based and may repeat: "2,1,2" selects page 2, then page 1, then page 2 again.
// Ranges are expanded without a bound; use SelectPages for untrusted input.
func ParsePageSpecifier(pages string) ([]int, error) {
	ranges, err := parsePageRanges(pages)
	if err != nil {
		return nil, err
	}
	return expandRanges(ranges), nil
}

// ValidatePageNumbers checks if all page numbers are valid for a given total number of pages
func ValidatePageNumbers(pages []int, totalPages int) error {
	for _, page := range pages {
		if err := validatePageRange(pageRange{first: page, last: page}, totalPages); err != nil {
			return err
		}
	}
	return nil
}

func validatePageRange(r pageRange, totalPages int) error {
	if r.first < 1 {
		return fmt.Errorf("%w: page numbers start at 1, got %d", ErrIndexOutOfRange, r.first)
	}
	if r.last > totalPages {
		return fmt.Errorf("%w: page %d exceeds total pages (%d)", ErrIndexOutOfRange, r.last, totalPages)
	}
	return nil
}

// SelectPages parses spec and checks every page against totalPages.
// Range bounds are checked before expansion, so the result never exceeds
// the number of pages the spec names within the document.
func SelectPages(spec string, totalPages int) ([]int, error) {
	ranges, err := parsePageRanges(spec)
	if err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if err := validatePageRange(r, totalPages); err != nil {
			return nil, err
		}
	}
	return expandRanges(ranges), nil
}

// pageSelection renders page numbers in the selection syntax pdfcpu expects.
func pageSelection(pages []int) []string {
	pageStrs := make([]string, len(pages))
	for i, p := range pages {
		pageStrs[i] = strconv.Itoa(p)
	}
	return pageStrs
}
