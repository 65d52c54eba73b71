package wcedit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/conflictresolver"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/merge3"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/wcdb"
	"github.com/nanowc/wcedit/xlate"
)

// nativeEOL is the platform line ending substituted for svn:eol-style=native.
const nativeEOL = "\n"

// CloseFile implements spec.md §4.5 close_file: run merge_file, then
// propagate the bump decrement so ancestor directories can complete
// (spec.md §4.7's completion cascade is driven from every close, not just
// close_directory).
func (e *EditContext) CloseFile(ctx context.Context, f *FileContext, expectedMD5 string) error {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("close_file", "path", f.abspath, "skipped", f.skipped)

	if f.skipped {
		return e.maybeBumpDirInfo(ctx, f.bump)
	}

	if err := e.mergeFile(ctx, f, expectedMD5); err != nil {
		return err
	}
	return e.maybeBumpDirInfo(ctx, f.bump)
}

// mergeFile is the heart of file integration (spec.md §4.5, steps 1-9).
func (e *EditContext) mergeFile(ctx context.Context, f *FileContext, expectedMD5 string) error {
	if expectedMD5 != "" && f.newPristineSet {
		expected, err := checksum.FromHex(expectedMD5)
		if err != nil {
			return fmt.Errorf("wcedit: parse expected checksum for %s: %w", f.abspath, err)
		}
		if expected != f.newPristineSum {
			return fmt.Errorf("%w: expected %s, got %s for %s", ErrChecksumMismatch, expected, f.newPristineSum, f.abspath)
		}
	}

	buf := logqueue.NewBuffer()

	buf.Append(logqueue.EntryModify(f.parent.abspath, f.basename, wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldRevision, wcdb.FieldURL, wcdb.FieldDeleted, wcdb.FieldAbsent, wcdb.FieldTextTime, wcdb.FieldWorkingSize},
		Entry: wcdb.Entry{
			Kind:        wcdb.KindFile,
			Revision:    *e.targetRevision,
			URL:         f.newURL,
			Deleted:     false,
			Absent:      false,
			TextTimeSet: false,
			WorkingSize: -1,
		},
	}))

	existingEntry, entryErr := e.adminStore.GetEntry(ctx, f.abspath, true, wcdb.KindFile)
	hadEntry := entryErr == nil

	commitDate, err := e.mergeFileProps(ctx, f, buf, existingEntry, hadEntry)
	if err != nil {
		return err
	}

	locallyModified := false
	if hadEntry && !f.added {
		probe := newStoreProbe(e)
		mod, err := probe.HasLocalTextMod(ctx, f.abspath)
		if err != nil {
			return fmt.Errorf("wcedit: determine local modification status for %s: %w", f.abspath, err)
		}
		locallyModified = mod
	}

	_, statErr := os.Stat(f.abspath)
	workingExists := statErr == nil

	contentState := notify.ContentStateUnchanged

	switch {
	case f.newPristineSet && hadEntry && existingEntry.Schedule == wcdb.ScheduleReplace:
		// Install new text-base only; working file untouched.

	case f.newPristineSet && f.deletedInLocalTree:
		// Install text-base only.

	case f.newPristineSet && workingExists && locallyModified:
		conflicted, err := e.mergeLocalEdits(ctx, f, buf, existingEntry)
		if err != nil {
			return err
		}
		if conflicted {
			contentState = notify.ContentStateConflicted
		} else {
			contentState = notify.ContentStateMerged
		}

	case f.newPristineSet && f.addExisted:
		// "existed" obstruction: leave the working file alone.

	case f.newPristineSet:
		if err := e.installPristineCopy(ctx, f, buf); err != nil {
			return err
		}
		contentState = notify.ContentStateUpdated

	default:
		// No new text-base: only property/lock housekeeping applies.
	}

	if !f.newPristineSet && workingExists && !f.deletedInLocalTree {
		_, _, regularProps := partitionProps(f.propChanges)

		magicChanged := false
		for _, p := range regularProps {
			if isMagicProperty(p.Name) {
				magicChanged = true
				break
			}
		}
		if magicChanged {
			if err := e.retranslateWorkingFile(ctx, f, buf, existingEntry); err != nil {
				return err
			}
		}

		lockRemoved := false
		for _, p := range f.propChanges {
			if p.Name == entryPropLockToken && p.Deleted {
				lockRemoved = true
				break
			}
		}
		if lockRemoved && !locallyModified {
			buf.Append(logqueue.SetReadonly(f.abspath, true))
		}
	}

	if f.newPristineSet {
		buf.Append(logqueue.SetReadonly(f.abspath, true))
		buf.Append(logqueue.EntryModify(f.parent.abspath, f.basename, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldChecksum},
			Entry:  wcdb.Entry{Checksum: f.newPristineSum.String()},
		}))
	}

	if f.deletedInLocalTree {
		buf.Append(logqueue.EntryModify(f.parent.abspath, f.basename, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldSchedule},
			Entry:  wcdb.Entry{Schedule: wcdb.ScheduleDelete},
		}))
	} else {
		if info, err := os.Stat(f.abspath); err == nil {
			ts := info.ModTime()
			if e.useCommitTimes && !commitDate.IsZero() {
				ts = commitDate
			}
			buf.Append(logqueue.SetTimestamp(f.abspath, ts.UnixNano()))
			buf.Append(logqueue.SetWorkingSize(f.abspath, info.Size()))
		}
	}

	f.parent.logBuffer.Append(drainAll(buf)...)

	action := notify.ActionUpdateUpdate
	if f.added {
		action = notify.ActionUpdateAdd
	}
	if !f.deletedInLocalTree {
		e.notifier.Notify(notify.Event{
			Path:         f.abspath,
			Action:       action,
			ContentState: contentState,
			Revision:     *e.targetRevision,
		})
	}

	return nil
}

// mergeFileProps implements step 3: partition the file's accumulated
// property changes, merge the regular ones via the merge service, append
// loggy entry-prop writes, and install wc-props directly into the
// repository cache.
func (e *EditContext) mergeFileProps(ctx context.Context, f *FileContext, buf *logqueue.Buffer, existingEntry wcdb.Entry, hadEntry bool) (time.Time, error) {
	entryProps, wcProps, regularProps := partitionProps(f.propChanges)

	if len(wcProps) > 0 {
		values := make(map[string]string, len(wcProps))
		for _, p := range wcProps {
			if !p.Deleted {
				values[p.Name] = p.Value
			}
		}
		if err := e.adminStore.SetDAVCache(ctx, f.abspath, values); err != nil {
			return time.Time{}, fmt.Errorf("wcedit: install wc-props for %s: %w", f.abspath, err)
		}
	}

	var (
		commitDate    time.Time
		commitInfo    wcdb.Entry
		haveCommitAny bool
	)
	commitInfo.CommitRevision = *e.targetRevision

	for _, p := range entryProps {
		switch {
		case p.Name == entryPropLockToken && p.Deleted:
			buf.Append(logqueue.DeleteLock(f.parent.abspath, f.basename))
		case p.Name == entryPropCommittedRev:
			haveCommitAny = true
		case p.Name == entryPropCommittedDate:
			if parsed, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				commitDate = parsed
				commitInfo.CommitDate = parsed
				haveCommitAny = true
			}
		case p.Name == entryPropLastAuthor:
			commitInfo.CommitAuthor = p.Value
			haveCommitAny = true
		}
	}

	if haveCommitAny {
		buf.Append(logqueue.EntryModify(f.parent.abspath, f.basename, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldCommitInfo},
			Entry:  commitInfo,
		}))
	}

	if len(regularProps) == 0 {
		return commitDate, nil
	}

	layers, err := e.adminStore.LoadProps(ctx, f.abspath)
	if err != nil {
		return commitDate, fmt.Errorf("wcedit: load properties for %s: %w", f.abspath, err)
	}

	latest := layers.Working.Clone()
	if latest == nil {
		latest = wcdb.Props{}
	}
	for _, p := range regularProps {
		if p.Deleted {
			delete(latest, p.Name)
		} else {
			latest[p.Name] = p.Value
		}
	}

	merged, conflicts, err := e.mergeService.MergeProps(layers.Base, layers.Working, latest, e.resolvePropConflict(ctx, f.abspath))
	if err != nil {
		return commitDate, fmt.Errorf("wcedit: merge properties for %s: %w", f.abspath, err)
	}

	buf.Append(logqueue.MergeProps(f.abspath, wcdb.PropLayers{Base: latest, Working: merged, Revert: layers.Revert}))

	if len(conflicts) > 0 {
		e.notifier.Notify(notify.Event{Path: f.abspath, Action: notify.ActionTreeConflict, PropState: notify.PropStateConflicted})
	}

	return commitDate, nil
}

// retranslateWorkingFile implements the "no new text-base, but magic
// properties or keywords present" row of the action matrix (spec.md §4.5
// step 5): de-translate the working file against its old keyword/EOL
// configuration, re-translate it against the new one, and stage the result
// for an atomic swap into place.
func (e *EditContext) retranslateWorkingFile(ctx context.Context, f *FileContext, buf *logqueue.Buffer, existingEntry wcdb.Entry) error {
	layers, err := e.adminStore.LoadProps(ctx, f.abspath)
	if err != nil {
		return fmt.Errorf("wcedit: load properties for retranslation of %s: %w", f.abspath, err)
	}

	oldCfg := propsToXlateConfig(layers.Working)

	newProps := layers.Working.Clone()
	if newProps == nil {
		newProps = wcdb.Props{}
	}
	_, _, regularProps := partitionProps(f.propChanges)
	for _, p := range regularProps {
		if p.Deleted {
			delete(newProps, p.Name)
		} else {
			newProps[p.Name] = p.Value
		}
	}
	newCfg := propsToXlateConfig(newProps)

	working, err := os.ReadFile(f.abspath)
	if err != nil {
		return fmt.Errorf("wcedit: read working file %s for retranslation: %w", f.abspath, err)
	}

	var detranslated bytes.Buffer
	if err := e.translator.Detranslate(oldCfg, bytes.NewReader(working), &detranslated); err != nil {
		return fmt.Errorf("wcedit: detranslate %s: %w", f.abspath, err)
	}

	values := xlate.KeywordValues{
		Revision: strconv.FormatInt(existingEntry.CommitRevision, 10),
		Date:     existingEntry.CommitDate,
		Author:   existingEntry.CommitAuthor,
		URL:      f.newURL,
		Path:     f.basename,
		RepoRoot: e.reposRootURL,
	}

	var retranslated bytes.Buffer
	if err := e.translator.Translate(nativeEOL, values, newCfg, bytes.NewReader(detranslated.Bytes()), &retranslated); err != nil {
		return fmt.Errorf("wcedit: translate %s: %w", f.abspath, err)
	}

	workPath, err := f.tempWorkPath(".tmp")
	if err != nil {
		return err
	}
	if err := os.WriteFile(workPath, retranslated.Bytes(), 0o644); err != nil {
		return fmt.Errorf("wcedit: stage retranslated %s: %w", f.abspath, err)
	}
	buf.Append(logqueue.Move(workPath, f.abspath))
	return nil
}

// installPristineCopy implements the "clean loggy-copy install" row of the
// action matrix (spec.md §4.5 step 5): stage the newly-applied text base's
// decompressed content in the administrative temp area and queue its
// installation as the working file.
func (e *EditContext) installPristineCopy(ctx context.Context, f *FileContext, buf *logqueue.Buffer) error {
	rc, err := e.pristineStore.Open(ctx, f.newPristineSum)
	if err != nil {
		return fmt.Errorf("wcedit: open new text base for %s: %w", f.abspath, err)
	}
	defer rc.Close()

	workPath, err := f.tempWorkPath(".tmp")
	if err != nil {
		return err
	}
	out, err := os.Create(workPath)
	if err != nil {
		return fmt.Errorf("wcedit: stage new text for %s: %w", f.abspath, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("wcedit: write staged text for %s: %w", f.abspath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("wcedit: close staged text for %s: %w", f.abspath, err)
	}

	buf.Append(logqueue.Move(workPath, f.abspath))
	return nil
}

func propsToXlateConfig(props wcdb.Props) xlate.Config {
	eol, _ := xlate.ParseEOLStyle(props[propSvnEOLStyle])
	return xlate.Config{EOL: eol, Keywords: xlate.ParseKeywords(props[propSvnKeywords])}
}

// resolvePropConflict adapts the conflict resolver collaborator into the
// merge service's PropConflictFunc shape.
func (e *EditContext) resolvePropConflict(ctx context.Context, path string) merge3.PropConflictFunc {
	return func(name string, base, local, latest *string) (*string, error) {
		resolution, err := e.conflictResolver.Resolve(ctx, conflictresolver.Description{
			Path:         path,
			Kind:         conflictresolver.KindProperty,
			PropertyName: name,
			BaseContent:  bytesOrNil(base),
			LocalContent: bytesOrNil(local),
			LatestContent: bytesOrNil(latest),
		})
		if err != nil {
			return nil, fmt.Errorf("wcedit: resolve property conflict %q on %s: %w", name, path, err)
		}
		switch resolution.Choice {
		case conflictresolver.ChoiceBase:
			return base, nil
		case conflictresolver.ChoiceMine:
			return local, nil
		case conflictresolver.ChoiceTheirsFull:
			return latest, nil
		case conflictresolver.ChoiceMergedFile:
			if resolution.ResolvedContent != nil {
				s := string(resolution.ResolvedContent)
				return &s, nil
			}
			return latest, nil
		default:
			return local, nil
		}
	}
}

func bytesOrNil(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

// mergeLocalEdits implements the three-way-merge row of the action matrix:
// reconcile old_base, new_base, and the locally modified working file,
// naming conflict sidecars from the preserved-extensions list and the
// involved revisions (spec.md §4.5 step 5, scenario 2).
func (e *EditContext) mergeLocalEdits(ctx context.Context, f *FileContext, buf *logqueue.Buffer, existingEntry wcdb.Entry) (conflicted bool, err error) {
	var oldBase []byte
	if existingEntry.Checksum != "" {
		sum, sumErr := checksum.FromHex(existingEntry.Checksum)
		if sumErr != nil {
			return false, fmt.Errorf("wcedit: parse old checksum for %s: %w", f.abspath, sumErr)
		}
		rc, openErr := e.pristineStore.Open(ctx, sum)
		if openErr != nil {
			return false, fmt.Errorf("wcedit: open old text base for %s: %w", f.abspath, openErr)
		}
		defer rc.Close()
		oldBase, err = io.ReadAll(rc)
		if err != nil {
			return false, fmt.Errorf("wcedit: read old text base for %s: %w", f.abspath, err)
		}
	}

	newRC, err := e.pristineStore.Open(ctx, f.newPristineSum)
	if err != nil {
		return false, fmt.Errorf("wcedit: open new text base for %s: %w", f.abspath, err)
	}
	defer newRC.Close()
	newBase, err := io.ReadAll(newRC)
	if err != nil {
		return false, fmt.Errorf("wcedit: read new text base for %s: %w", f.abspath, err)
	}

	working, err := os.ReadFile(f.abspath)
	if err != nil {
		return false, fmt.Errorf("wcedit: read working file %s: %w", f.abspath, err)
	}

	var out bytes.Buffer
	result, err := e.mergeService.MergeText(merge3.TextInput{
		Base:   bytes.NewReader(oldBase),
		Local:  bytes.NewReader(working),
		Latest: bytes.NewReader(newBase),
	}, merge3.ConflictStyleMarkers, &out)
	if err != nil {
		return false, fmt.Errorf("wcedit: merge text for %s: %w", f.abspath, err)
	}

	workPath, err := f.tempWorkPath(".merged")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(workPath, out.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("wcedit: stage merged text for %s: %w", f.abspath, err)
	}
	buf.Append(logqueue.Move(workPath, f.abspath))

	if !result.Conflicted {
		return false, nil
	}

	log.FromContextOrNoop(ctx).Warn("text conflict merging local edits", "path", f.abspath)

	mineSuffix, oldSuffix, newSuffix := conflictSuffixes(e.preservedExtensions, f.basename, existingEntry.Revision, *e.targetRevision)
	if err := os.WriteFile(f.abspath+mineSuffix, working, 0o644); err != nil {
		return false, fmt.Errorf("wcedit: write .mine sidecar for %s: %w", f.abspath, err)
	}
	if err := os.WriteFile(f.abspath+oldSuffix, oldBase, 0o644); err != nil {
		return false, fmt.Errorf("wcedit: write old-revision sidecar for %s: %w", f.abspath, err)
	}
	if err := os.WriteFile(f.abspath+newSuffix, newBase, 0o644); err != nil {
		return false, fmt.Errorf("wcedit: write new-revision sidecar for %s: %w", f.abspath, err)
	}

	return true, nil
}

// conflictSuffixes names the .mine/.rOLD/.rNEW conflict sidecars (spec.md
// §8 scenario 2). A preserved extension (e.g. ".txt") is kept verbatim
// ahead of the conflict suffix rather than appended after it.
func conflictSuffixes(preserved []string, basename string, oldRev, newRev int64) (mine, old, latest string) {
	ext := ""
	for _, p := range preserved {
		if filepath.Ext(basename) == p {
			ext = p
			break
		}
	}
	if ext != "" {
		return ext + ".mine", ext + fmt.Sprintf(".r%d", oldRev), ext + fmt.Sprintf(".r%d", newRev)
	}
	return ".mine", fmt.Sprintf(".r%d", oldRev), fmt.Sprintf(".r%d", newRev)
}

// drainAll pulls every command out of buf regardless of how many Append
// groups it was built from, for folding a file's local log into its
// parent's buffer (spec.md §4.5 step 9).
func drainAll(buf *logqueue.Buffer) []logqueue.Command {
	_, cmds := buf.Drain()
	return cmds
}
