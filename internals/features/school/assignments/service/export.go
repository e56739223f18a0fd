// file: internals/features/school/assignments/service/export.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	model "classroom_backend/internals/features/school/assignments/model"
	batchService "classroom_backend/internals/features/school/batches/service"
)

const (
	exportPageSize = 100
	// exportErrorsEntry lists skipped and truncated files; sanitized entry
	// names never start with '_' so it cannot clash with a student file.
	exportErrorsEntry = "_export_errors.txt"
)

// ExportReport summarises one archive run.
type ExportReport struct {
	Entries int
	Skipped int
	// Truncated counts entries whose source failed mid-copy.
	Truncated int
	Issues    []ExportIssue
}

// ExportIssue is one submission that is missing or incomplete in the archive.
type ExportIssue struct {
	StudentID  uuid.UUID
	RollNumber string
	Name       string
	Entry      string
	Problem    string // "skipped" | "truncated"
	Reason     string
}

// ExportJob is a checked export, ready to stream.
type ExportJob struct {
	svc        *Service
	assignment *model.AssignmentModel
	FileName   string
}

// PrepareExport checks ownership before anything is written to the client.
func (s *Service) PrepareExport(ctx context.Context, assignmentID, requesterID uuid.UUID) (*ExportJob, error) {
	a, err := s.loadOwned(ctx, s.store, assignmentID, requesterID)
	if err != nil {
		return nil, err
	}
	name := sanitizeSegment(a.AssignmentTitle)
	if name == "" {
		name = a.AssignmentID.String()
	}
	return &ExportJob{svc: s, assignment: a, FileName: name + "_submissions.zip"}, nil
}

type flusher interface {
	Flush() error
}

// WriteTo streams a zip of every submitted file into w, one object at a time.
// A source that cannot be fetched is logged and skipped; a failing w or a
// cancelled ctx stops the run.
func (j *ExportJob) WriteTo(ctx context.Context, w io.Writer) (ExportReport, error) {
	var rep ExportReport
	s := j.svc
	if s.exportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.exportTimeout)
		defer cancel()
	}
	aid := j.assignment.AssignmentID

	out := &trackingWriter{w: w}
	zw := zip.NewWriter(out)
	names := map[string]int{exportErrorsEntry: 1}

	err := s.store.Submissions.EachWithFile(ctx, aid, exportPageSize, func(rows []model.SubmissionModel) error {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.SubmissionStudentID)
		}
		profiles, err := s.roster.Profiles(ctx, j.assignment.AssignmentPostedTo, ids)
		if err != nil {
			return err
		}

		for i := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			sub := &rows[i]
			f := sub.File()
			if f == nil {
				continue
			}
			entry := uniqueEntryName(names, entryName(profiles, sub.SubmissionStudentID, f))

			status, cause, err := j.copyEntry(ctx, zw, out, entry, sub, f)
			if err != nil {
				return err
			}
			switch status {
			case entryWritten:
				rep.Entries++
			case entrySkipped:
				rep.Skipped++
				rep.Issues = append(rep.Issues, newExportIssue(profiles, sub.SubmissionStudentID, entry, "skipped", cause))
			case entryTruncated:
				rep.Truncated++
				rep.Issues = append(rep.Issues, newExportIssue(profiles, sub.SubmissionStudentID, entry, "truncated", cause))
			}

			if err := zw.Flush(); err != nil {
				return err
			}
			if fl, ok := w.(flusher); ok {
				if err := fl.Flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("export aborted",
			zap.Stringer("assignment_id", aid),
			zap.Int("entries", rep.Entries),
			zap.Error(err),
		)
		return rep, err
	}
	if len(rep.Issues) > 0 {
		if err := writeIssues(zw, rep.Issues); err != nil {
			return rep, err
		}
	}
	if err := zw.Close(); err != nil {
		return rep, err
	}
	if fl, ok := w.(flusher); ok {
		if err := fl.Flush(); err != nil {
			return rep, err
		}
	}

	s.log.Info("export finished",
		zap.Stringer("assignment_id", aid),
		zap.Int("entries", rep.Entries),
		zap.Int("skipped", rep.Skipped),
		zap.Int("truncated", rep.Truncated),
	)
	return rep, nil
}

type entryStatus int

const (
	entryWritten entryStatus = iota
	entrySkipped
	entryTruncated
)

// copyEntry writes one object as entry. cause is set for skipped and
// truncated entries; err stops the whole export.
func (j *ExportJob) copyEntry(ctx context.Context, zw *zip.Writer, out *trackingWriter, entry string, sub *model.SubmissionModel, f *model.AttachmentFile) (status entryStatus, cause, err error) {
	lg := j.svc.log.With(
		zap.Stringer("submission_id", sub.SubmissionID),
		zap.String("key", f.Key),
	)

	src, err := j.svc.objects.GetObject(ctx, f.Key)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return 0, nil, cerr
		}
		lg.Warn("export: skip unreadable object", zap.Error(err))
		return entrySkipped, err, nil
	}
	defer src.Close()

	hdr := &zip.FileHeader{Name: entry, Method: zip.Deflate}
	if sub.SubmissionSubmittedAt != nil {
		hdr.Modified = *sub.SubmissionSubmittedAt
	}
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		if out.err != nil {
			return 0, nil, out.err
		}
		if cerr := ctx.Err(); cerr != nil {
			return 0, nil, cerr
		}
		// the entry header is already out; what was copied stays and the
		// errors entry says so
		lg.Warn("export: object read failed mid-copy", zap.String("entry", entry), zap.Error(err))
		return entryTruncated, err, nil
	}
	return entryWritten, nil, nil
}

func newExportIssue(profiles map[uuid.UUID]batchService.StudentProfile, studentID uuid.UUID, entry, problem string, cause error) ExportIssue {
	is := ExportIssue{StudentID: studentID, Entry: entry, Problem: problem, RollNumber: "unknown", Name: studentID.String()}
	if p, ok := profiles[studentID]; ok {
		is.RollNumber, is.Name = p.RollNumber, p.Name
	}
	if cause != nil {
		is.Reason = cause.Error()
	}
	return is
}

// writeIssues appends the errors entry: one tab-separated line per issue.
func writeIssues(zw *zip.Writer, issues []ExportIssue) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: exportErrorsEntry, Method: zip.Deflate})
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("These submissions are missing or incomplete in this archive.\n\n")
	b.WriteString("roll\tname\tfile\tproblem\treason\n")
	for _, is := range issues {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\n", is.RollNumber, is.Name, is.Entry, is.Problem, is.Reason)
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// trackingWriter remembers the first write error so copy failures can be
// told apart from source failures.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

/* =======================================================================
   Entry naming
======================================================================= */

// sanitizeSegment folds accents and keeps letters and digits, other runs become '_'.
func sanitizeSegment(s string) string {
	// chained transformers keep state, build one per call
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	underscore := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// entryName builds "<roll>_<name><ext>"; students missing from the roster
// are named after their id.
func entryName(profiles map[uuid.UUID]batchService.StudentProfile, studentID uuid.UUID, f *model.AttachmentFile) string {
	roll, name := "unknown", studentID.String()
	if p, ok := profiles[studentID]; ok {
		if r := sanitizeSegment(p.RollNumber); r != "" {
			roll = r
		}
		if n := sanitizeSegment(p.Name); n != "" {
			name = n
		}
	}

	ext := strings.ToLower(path.Ext(f.Name))
	if ext == "" {
		ext = strings.ToLower(path.Ext(f.Key))
	}
	if ext != "" && sanitizeSegment(ext[1:]) != ext[1:] {
		ext = ""
	}
	return roll + "_" + name + ext
}

func uniqueEntryName(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n+1, ext)
}

// IsClientGone reports whether err came from the client going away mid-stream.
func IsClientGone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.ErrClosedPipe)
}
