package tests

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"towdispatch/internal/domain"
	"towdispatch/internal/service"
)

// testPhoto returns a small valid JPEG for batch submissions.
func testPhoto(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test photo: %v", err)
	}
	return buf.Bytes()
}

func photoBatch(t *testing.T, n int) []service.EvidenceItem {
	t.Helper()

	items := make([]service.EvidenceItem, n)
	for i := range items {
		items[i] = service.EvidenceItem{Data: testPhoto(t)}
	}
	return items
}

// ──────────────────────────────────────────────
// 1. PHASE CLASSIFICATION
// ──────────────────────────────────────────────

func TestSubmitBatch_PhaseFollowsStage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		status         domain.JobStatus
		pickupStatus   domain.LegStatus
		deliveryStatus domain.LegStatus
		wantPhase      domain.EvidencePhase
	}{
		{
			name:           "assigned job collects pickup evidence",
			status:         domain.JobStatusAssigned,
			pickupStatus:   domain.LegStatusPending,
			deliveryStatus: domain.LegStatusPending,
			wantPhase:      domain.PhasePickup,
		},
		{
			name:           "arrived at pickup still collects pickup evidence",
			status:         domain.JobStatusArrivedPickup,
			pickupStatus:   domain.LegStatusInProgress,
			deliveryStatus: domain.LegStatusPending,
			wantPhase:      domain.PhasePickup,
		},
		{
			name:           "loaded job collects destination evidence",
			status:         domain.JobStatusOnWayDropoff,
			pickupStatus:   domain.LegStatusCompleted,
			deliveryStatus: domain.LegStatusInProgress,
			wantPhase:      domain.PhaseDestination,
		},
		{
			name:           "arrived at drop-off collects destination evidence",
			status:         domain.JobStatusArrivedDropoff,
			pickupStatus:   domain.LegStatusCompleted,
			deliveryStatus: domain.LegStatusCompleted,
			wantPhase:      domain.PhaseDestination,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jobRepo := NewMockJobRepository()
			job := newAssignedJob("job-1", "driver-1")
			job.Status = tc.status
			job.Legs[0].Status = tc.pickupStatus
			job.Legs[1].Status = tc.deliveryStatus
			jobRepo.AddJob(job)

			evidenceRepo := NewMockEvidenceRepository()
			blobStore := NewMockBlobStore()
			evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, NewMockLockStore())

			resp, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
				JobID: "job-1",
				Items: photoBatch(t, 2),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Phase != tc.wantPhase {
				t.Errorf("expected phase %s, got %s", tc.wantPhase, resp.Phase)
			}
			for _, item := range resp.Items {
				if item.Phase != tc.wantPhase {
					t.Errorf("expected item phase %s, got %s", tc.wantPhase, item.Phase)
				}
				if item.BlobRef == "" {
					t.Error("expected item to carry a blob ref")
				}
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. ALL-OR-NOTHING COMMIT
// ──────────────────────────────────────────────

func TestSubmitBatch_UploadFailureVoidsWholeBatch(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidenceRepo := NewMockEvidenceRepository()
	blobStore := NewMockBlobStore()
	blobStore.FailOnPut = 2 // first upload succeeds, the rest fail

	evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, NewMockLockStore())

	_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: photoBatch(t, 3),
	})
	if err == nil {
		t.Fatal("expected batch to fail")
	}

	if evidenceRepo.Count() != 0 {
		t.Errorf("expected no persisted rows, got %d", evidenceRepo.Count())
	}
	if blobStore.StoredCount() != 0 {
		t.Errorf("expected uploaded blobs cleaned up, %d remain", blobStore.StoredCount())
	}
	if evidenceRepo.AppendBatchCallCount != 0 {
		t.Error("expected AppendBatch never to be reached")
	}
}

func TestSubmitBatch_RowInsertFailureCleansBlobs(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidenceRepo := NewMockEvidenceRepository()
	evidenceRepo.AppendBatchError = errors.New("insert failed")
	blobStore := NewMockBlobStore()

	evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, NewMockLockStore())

	_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: photoBatch(t, 3),
	})
	if err == nil {
		t.Fatal("expected batch to fail")
	}

	if blobStore.StoredCount() != 0 {
		t.Errorf("expected all blobs deleted after insert failure, %d remain", blobStore.StoredCount())
	}
	if blobStore.DeletedCount() != 3 {
		t.Errorf("expected 3 blob deletes, got %d", blobStore.DeletedCount())
	}
}

func TestSubmitBatch_UndecodablePhotoFailsBatch(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidenceRepo := NewMockEvidenceRepository()
	blobStore := NewMockBlobStore()
	evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, NewMockLockStore())

	items := photoBatch(t, 2)
	items = append(items, service.EvidenceItem{Data: []byte("not an image")})

	_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: items,
	})
	if err == nil {
		t.Fatal("expected batch to fail on undecodable photo")
	}
	if evidenceRepo.Count() != 0 {
		t.Errorf("expected no persisted rows, got %d", evidenceRepo.Count())
	}
	if blobStore.StoredCount() != 0 {
		t.Errorf("expected blobs cleaned up, %d remain", blobStore.StoredCount())
	}
}

func TestSubmitBatch_SuccessPersistsEveryItem(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidenceRepo := NewMockEvidenceRepository()
	blobStore := NewMockBlobStore()
	lockStore := NewMockLockStore()
	evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, lockStore)

	items := photoBatch(t, 4)
	items[1].VehicleID = "vehicle-7"

	resp, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: items,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(resp.Items))
	}
	count, err := evidence.CountByPhase(context.Background(), "job-1", domain.PhasePickup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Errorf("expected pickup count 4, got %d", count)
	}
	if blobStore.StoredCount() != 4 {
		t.Errorf("expected 4 stored blobs, got %d", blobStore.StoredCount())
	}
	if resp.Items[1].VehicleID != "vehicle-7" {
		t.Errorf("expected vehicle binding preserved, got %q", resp.Items[1].VehicleID)
	}

	// The batch lock was released: the next batch may start.
	ok, err := lockStore.AcquireBatchLock(context.Background(), "job-1", 0)
	if err != nil || !ok {
		t.Errorf("expected lock released after batch, ok=%v err=%v", ok, err)
	}
}

// ──────────────────────────────────────────────
// 3. BATCH LOCK AND PRECONDITIONS
// ──────────────────────────────────────────────

func TestSubmitBatch_RejectsWhileBatchInFlight(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	blobStore := NewMockBlobStore()
	lockStore := NewMockLockStore()
	lockStore.Hold("job-1")

	evidence := service.NewEvidenceService(jobRepo, NewMockEvidenceRepository(), blobStore, lockStore)

	_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: photoBatch(t, 1),
	})
	if !errors.Is(err, service.ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
	if blobStore.PutCallCount != 0 {
		t.Error("expected no uploads while the lock is held")
	}
}

func TestSubmitBatch_RejectsTerminalJobs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  domain.JobStatus
		wantErr error
	}{
		{name: "completed job", status: domain.JobStatusCompleted, wantErr: service.ErrJobCompleted},
		{name: "cancelled job", status: domain.JobStatusCancelled, wantErr: service.ErrJobCancelled},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jobRepo := NewMockJobRepository()
			job := newAssignedJob("job-1", "driver-1")
			job.Status = tc.status
			jobRepo.AddJob(job)

			evidence := service.NewEvidenceService(jobRepo, NewMockEvidenceRepository(), NewMockBlobStore(), NewMockLockStore())

			_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
				JobID: "job-1",
				Items: photoBatch(t, 1),
			})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSubmitBatch_RejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidence := service.NewEvidenceService(jobRepo, NewMockEvidenceRepository(), NewMockBlobStore(), NewMockLockStore())

	_, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{JobID: "job-1"})
	if !errors.Is(err, service.ErrEmptyEvidenceBatch) {
		t.Fatalf("expected ErrEmptyEvidenceBatch, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. SINGLE-ITEM DELETION
// ──────────────────────────────────────────────

func TestDeleteEvidence_RemovesOnlyTheTargetItem(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	evidenceRepo := NewMockEvidenceRepository()
	blobStore := NewMockBlobStore()
	evidence := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, NewMockLockStore())

	resp, err := evidence.SubmitBatch(context.Background(), service.SubmitBatchRequest{
		JobID: "job-1",
		Items: photoBatch(t, 3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := evidence.Delete(context.Background(), resp.Items[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evidenceRepo.Count() != 2 {
		t.Errorf("expected 2 rows to survive, got %d", evidenceRepo.Count())
	}
	if blobStore.StoredCount() != 2 {
		t.Errorf("expected 2 blobs to survive, got %d", blobStore.StoredCount())
	}
	if blobStore.DeletedCount() != 1 {
		t.Errorf("expected 1 blob delete, got %d", blobStore.DeletedCount())
	}
}
