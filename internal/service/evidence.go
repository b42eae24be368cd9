package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for submitted photos
	"sync"
	"time"

	"github.com/google/uuid"

	"towdispatch/internal/blob"
	"towdispatch/internal/domain"
	"towdispatch/internal/redis"
	"towdispatch/internal/repository"
)

// batchLockTTL bounds how long an abandoned batch can block the next
// upload attempt for the same job.
const batchLockTTL = 2 * time.Minute

// jpegQuality used when recompressing photos before upload.
const jpegQuality = 80

// EvidenceItem is one photo in a batch: raw bytes plus the optional
// vehicle it documents.
type EvidenceItem struct {
	Data      []byte
	VehicleID string
}

// EvidenceService classifies, stores and counts photographic evidence.
type EvidenceService struct {
	jobRepo      repository.JobRepository
	evidenceRepo repository.EvidenceRepository
	blobStore    blob.Store
	lockStore    redis.LockStoreInterface
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(
	jobRepo repository.JobRepository,
	evidenceRepo repository.EvidenceRepository,
	blobStore blob.Store,
	lockStore redis.LockStoreInterface,
) *EvidenceService {
	return &EvidenceService{
		jobRepo:      jobRepo,
		evidenceRepo: evidenceRepo,
		blobStore:    blobStore,
		lockStore:    lockStore,
	}
}

// SubmitBatchRequest contains the parameters for committing a batch.
type SubmitBatchRequest struct {
	JobID string
	Items []EvidenceItem
}

// SubmitBatchResponse contains the persisted evidence rows.
type SubmitBatchResponse struct {
	Phase domain.EvidencePhase
	Items []domain.Evidence
}

// SubmitBatch commits a batch of photos with all-or-nothing semantics.
// The phase is derived from the job's current stage. Items compress and
// upload in parallel; the commit point waits for every upload, and a
// single failure voids the batch: already-uploaded blobs are deleted
// and no row is persisted. The caller retries the whole batch.
func (s *EvidenceService) SubmitBatch(ctx context.Context, req SubmitBatchRequest) (*SubmitBatchResponse, error) {
	if req.JobID == "" {
		return nil, ErrInvalidJobID
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyEvidenceBatch
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	stage := domain.DeriveStage(job)
	if domain.Terminal(stage) {
		if stage == domain.JobStatusCancelled {
			return nil, ErrJobCancelled
		}
		return nil, ErrJobCompleted
	}
	phase := domain.PhaseForStage(stage)

	if s.lockStore != nil {
		ok, err := s.lockStore.AcquireBatchLock(ctx, req.JobID, batchLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBatchInProgress
		}
		defer func() { _ = s.lockStore.ReleaseBatchLock(ctx, req.JobID) }()
	}

	now := time.Now()
	rows := make([]domain.Evidence, len(req.Items))
	refs := make([]string, len(req.Items))
	errs := make([]error, len(req.Items))

	var wg sync.WaitGroup
	for i, item := range req.Items {
		id := uuid.New().String()
		rows[i] = domain.Evidence{
			ID:        id,
			JobID:     req.JobID,
			Phase:     phase,
			VehicleID: item.VehicleID,
			CreatedAt: now,
		}

		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			compressed, err := compressPhoto(data)
			if err != nil {
				errs[i] = err
				return
			}
			key := fmt.Sprintf("jobs/%s/%s/%s.jpg", req.JobID, phaseSegment(phase), rows[i].ID)
			ref, err := s.blobStore.Put(ctx, key, compressed, "image/jpeg")
			if err != nil {
				errs[i] = err
				return
			}
			refs[i] = ref
		}(i, item.Data)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			// Void the batch: release every blob the batch allocated.
			for _, ref := range refs {
				if ref != "" {
					_ = s.blobStore.Delete(ctx, ref)
				}
			}
			return nil, err
		}
	}

	for i := range rows {
		rows[i].BlobRef = refs[i]
	}

	if err := s.evidenceRepo.AppendBatch(ctx, rows); err != nil {
		for _, ref := range refs {
			_ = s.blobStore.Delete(ctx, ref)
		}
		return nil, err
	}

	return &SubmitBatchResponse{Phase: phase, Items: rows}, nil
}

// CountByPhase counts a job's evidence in the given phase.
func (s *EvidenceService) CountByPhase(ctx context.Context, jobID string, phase domain.EvidencePhase) (int, error) {
	if jobID == "" {
		return 0, ErrInvalidJobID
	}
	return s.evidenceRepo.CountByPhase(ctx, jobID, phase)
}

// List returns all evidence for a job, oldest first.
func (s *EvidenceService) List(ctx context.Context, jobID string) ([]domain.Evidence, error) {
	if jobID == "" {
		return nil, ErrInvalidJobID
	}
	return s.evidenceRepo.ListByJob(ctx, jobID)
}

// Delete removes a single evidence item and its blob. Other items are
// unaffected; deletion is never batched.
func (s *EvidenceService) Delete(ctx context.Context, evidenceID string) error {
	item, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return err
	}
	if err := s.evidenceRepo.Delete(ctx, evidenceID); err != nil {
		return err
	}
	// Blob cleanup is best effort; the row is the source of truth.
	_ = s.blobStore.Delete(ctx, item.BlobRef)
	return nil
}

// compressPhoto decodes an image and re-encodes it as JPEG at upload
// quality. Anything that does not decode as an image fails the item
// (and with it the batch).
func compressPhoto(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to compress photo: %w", err)
	}
	return buf.Bytes(), nil
}

func phaseSegment(phase domain.EvidencePhase) string {
	if phase == domain.PhasePickup {
		return "pickup"
	}
	return "destination"
}
