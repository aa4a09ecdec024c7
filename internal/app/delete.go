package app

import (
	"context"
	"fmt"

	"exam-prep-service/internal/domain"
)

// DeleteChunkSize is the number of deletes committed per atomic batch.
const DeleteChunkSize = 400

// DeleteMCQs deletes ids in chunks, each chunk one atomic batch. It stops at
// the first failing chunk; the result reports exactly the chunks committed
// before it.
func (s *QuestionService) DeleteMCQs(ctx context.Context, ids []string) (domain.DeleteResult, error) {
	result := domain.DeleteResult{
		Requested: len(ids),
		Chunks:    (len(ids) + DeleteChunkSize - 1) / DeleteChunkSize,
	}
	if len(ids) == 0 {
		return result, &domain.ValidationError{Field: "ids", Reason: "select at least one MCQ"}
	}
	defer func() {
		if result.Deleted > 0 {
			s.invalidate(ctx, domain.CollectionMCQs)
		}
	}()

	for start := 0; start < len(ids); start += DeleteChunkSize {
		end := start + DeleteChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		ops := make([]domain.BatchOp, len(chunk))
		for i, id := range chunk {
			ops[i] = domain.BatchOp{Kind: domain.BatchDelete, Collection: domain.CollectionMCQs, ID: id}
		}
		if err := s.store.Batch(ctx, ops); err != nil {
			return result, fmt.Errorf("delete chunk %d of %d: %w", result.CommittedChunks+1, result.Chunks, err)
		}
		result.CommittedChunks++
		result.Deleted += len(chunk)
	}
	return result, nil
}
