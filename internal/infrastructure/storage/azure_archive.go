package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/google/uuid"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

const (
	summaryBlob = "summary.json"
	heatmapBlob = "heatmap.jpg"
)

// AzureReportArchive хранит отчёты в Azure Blob Storage:
// <id>/summary.json и <id>/heatmap.jpg в одном контейнере.
type AzureReportArchive struct {
	client    *azblob.Client
	container string
}

// NewAzureReportArchive подключается по строке подключения и создаёт контейнер при необходимости.
func NewAzureReportArchive(ctx context.Context, connectionString, container string) (*AzureReportArchive, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %q: %w", container, err)
	}

	return &AzureReportArchive{client: client, container: container}, nil
}

// Save загружает сводку и тепловую карту отчёта.
func (a *AzureReportArchive) Save(ctx context.Context, report *entity.ArchivedReport) (string, error) {
	id := report.ID
	if id == "" {
		id = uuid.NewString()
	}

	if err := a.upload(ctx, id, summaryBlob, "application/json", report.Summary); err != nil {
		return "", err
	}
	if len(report.Heatmap) > 0 {
		if err := a.upload(ctx, id, heatmapBlob, "image/jpeg", report.Heatmap); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Load скачивает отчёт; отсутствие сводки означает ErrReportNotFound.
func (a *AzureReportArchive) Load(ctx context.Context, id string) (*entity.ArchivedReport, error) {
	summary, err := a.download(ctx, id, summaryBlob)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, entity.NewReportNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	heatmap, err := a.download(ctx, id, heatmapBlob)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, err
	}

	var meta struct {
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(summary, &meta); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", id, err)
	}

	return &entity.ArchivedReport{
		ID:        id,
		CreatedAt: meta.CreatedAt,
		Summary:   summary,
		Heatmap:   heatmap,
	}, nil
}

func (a *AzureReportArchive) upload(ctx context.Context, id, name, contentType string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.container, id+"/"+name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", id, name, err)
	}
	return nil
}

func (a *AzureReportArchive) download(ctx context.Context, id, name string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, id+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", id, name, err)
	}
	return data, nil
}

var _ port.ReportArchive = (*AzureReportArchive)(nil)
