package domain

import "context"

// pageFetch fetches one page of results for an opaque cursor. An empty
// cursor requests the first page. It returns the page's items and the next
// cursor, empty when the server has no further pages.
type pageFetch[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// eachPage walks every page of a cursor-paginated listing, invoking visit
// once per page in arrival order. The walk ends when visit asks to stop or
// when a page comes back without a next cursor; the absent cursor is the only
// completion signal, item counts are never used to infer it. A fetch error
// aborts immediately and is returned as-is.
func eachPage[T any](ctx context.Context, fetch pageFetch[T], visit func(items []T) (stop bool, err error)) error {
	cursor := ""
	for {
		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return err
		}

		stop, err := visit(items)
		if err != nil {
			return err
		}
		if stop || next == "" {
			return nil
		}
		cursor = next
	}
}

// collectPages drains a cursor-paginated listing into a single slice,
// concatenating pages in arrival order. Duplicates across pages, if the
// server returns any, are preserved.
func collectPages[T any](ctx context.Context, fetch pageFetch[T]) ([]T, error) {
	var all []T
	err := eachPage(ctx, fetch, func(items []T) (bool, error) {
		all = append(all, items...)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
