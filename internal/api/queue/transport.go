package queue

import (
	"context"
	"strconv"
	"time"
)

// Transport announces a created job to one message-queue backend.
// Implementations are stateless aside from the held client handle and
// do not retry: the caller decides what a failed announce means.
type Transport interface {
	Publish(ctx context.Context, jobID int64, pdfName string) error
	Name() string
}

// announcementFields builds the flat string map placed on the wire.
// createdAt is the publish-time wall clock in epoch milliseconds, which
// is distinct from the job row's persisted created_at.
func announcementFields(jobID int64, pdfName string) map[string]string {
	return map[string]string{
		"jobId":     strconv.FormatInt(jobID, 10),
		"pdfName":   pdfName,
		"createdAt": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

// partitionFor maps a job id onto a partition. A plain id-as-key hash
// left some partitions far busier than others, so the id is assigned
// with an explicit modulo instead.
func partitionFor(jobID int64, partitions int32) int32 {
	p := jobID % int64(partitions)
	if p < 0 {
		p += int64(partitions)
	}
	return int32(p)
}
