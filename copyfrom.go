package wcedit

import (
	"context"
	"fmt"
	"strings"

	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/retry"
	"github.com/nanowc/wcedit/wcdb"
)

// locateCopyFrom implements the copy-from locator (spec.md §4.4.1). It
// tries to find a local working-copy candidate whose pristine can serve as
// the copy source; on any mismatch it falls back to the fetch callback
// rather than guessing.
func (e *EditContext) locateCopyFrom(ctx context.Context, f *FileContext, destDir *DirContext, copyfromURL string, copyfromRev int64) error {
	candidatePath, ok := e.resolveCopyFromCandidate(ctx, destDir, copyfromURL, copyfromRev)
	if ok {
		entry, err := e.adminStore.GetEntry(ctx, candidatePath, true, wcdb.KindFile)
		if err == nil && copyFromCandidateValid(entry, e.reposUUID, e.reposRootURL, copyfromURL, copyfromRev) {
			sum, sumErr := checksum.FromHex(entry.Checksum)
			if sumErr == nil {
				layers, propErr := e.adminStore.LoadProps(ctx, candidatePath)
				if propErr == nil {
					f.haveCopiedBase = true
					f.copiedBaseSum = sum
					f.copiedBaseProps = layers.Base.Clone()
					return nil
				}
			}
		}
	}

	if e.fetchCallback == nil {
		return fmt.Errorf("%w: no local candidate for %s@%d and no fetch callback configured", ErrCopyFromPathNotFound, copyfromURL, copyfromRev)
	}

	relpath := strings.TrimPrefix(copyfromURL, e.reposRootURL)

	// A fresh pristine.Writer per attempt: retrying a flaky fetch against
	// an already-partially-written writer would duplicate bytes, so each
	// retry stages into a brand new one instead of resuming the last.
	var (
		sum       checksum.Checksum
		baseProps map[string]string
	)
	err := retry.DoVoid(ctx, func() error {
		writer, werr := e.pristineStore.NewWriter(ctx)
		if werr != nil {
			return fmt.Errorf("wcedit: stage copy-from fetch for %s: %w", f.abspath, werr)
		}

		props, fetchErr := e.fetchCallback.Fetch(ctx, relpath, copyfromRev, writer)
		if fetchErr != nil {
			_ = writer.Abort()
			return fmt.Errorf("wcedit: fetch copy-from source %s@%d: %w", relpath, copyfromRev, fetchErr)
		}

		s, closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("wcedit: finalize fetched copy-from pristine for %s: %w", f.abspath, closeErr)
		}

		sum, baseProps = s, props
		return nil
	})
	if err != nil {
		return err
	}

	f.haveCopiedBase = true
	f.copiedBaseSum = sum
	f.copiedBaseProps = wcdb.Props(baseProps)
	return nil
}

// resolveCopyFromCandidate implements locator steps 1-3: compute the
// destination's repository-relative path, find the nearest common
// filesystem ancestor with copyfromURL, and walk upward that many steps in
// the working copy to reach the candidate ancestor directory, then descend
// into the tail of copyfromURL.
func (e *EditContext) resolveCopyFromCandidate(ctx context.Context, destDir *DirContext, copyfromURL string, copyfromRev int64) (string, bool) {
	if e.reposRootURL == "" || !strings.HasPrefix(copyfromURL, e.reposRootURL) {
		return "", false
	}
	copyfromRelpath := strings.TrimPrefix(strings.TrimPrefix(copyfromURL, e.reposRootURL), "/")

	destRelpath := ""
	if destDir.newURL != "" && strings.HasPrefix(destDir.newURL, e.reposRootURL) {
		destRelpath = strings.TrimPrefix(strings.TrimPrefix(destDir.newURL, e.reposRootURL), "/")
	}

	commonLen := commonPrefixSegments(destRelpath, copyfromRelpath)

	ancestor := destDir
	for i := 0; i < segmentCount(destRelpath)-commonLen && ancestor.parent != nil; i++ {
		ancestor = ancestor.parent
	}

	tail := trimSegments(copyfromRelpath, commonLen)
	candidate := ancestor.abspath
	for _, seg := range splitSegments(tail) {
		joined, err := joinPath(candidate, seg)
		if err != nil {
			return "", false
		}
		candidate = joined
	}

	return candidate, true
}

func copyFromCandidateValid(entry wcdb.Entry, reposUUID, reposRoot, copyfromURL string, copyfromRev int64) bool {
	if entry.ReposUUID != "" && reposUUID != "" && entry.ReposUUID != reposUUID {
		return false
	}
	expectedURL := reposRoot + "/" + strings.TrimPrefix(copyfromURL, reposRoot+"/")
	if entry.URL != "" && entry.URL != copyfromURL && entry.URL != expectedURL {
		return false
	}
	if entry.CommitRevision <= 0 || entry.Revision <= 0 {
		return false
	}
	return entry.CommitRevision <= copyfromRev && copyfromRev <= entry.Revision
}

func splitSegments(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func segmentCount(p string) int {
	return len(splitSegments(p))
}

func commonPrefixSegments(a, b string) int {
	as, bs := splitSegments(a), splitSegments(b)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return n
}

func trimSegments(p string, n int) string {
	segs := splitSegments(p)
	if n >= len(segs) {
		return ""
	}
	return strings.Join(segs[n:], "/")
}
