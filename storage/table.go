package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	log "github.com/sirupsen/logrus"
)

const (
	edmBinary = "Edm.Binary"
	// namespaceRowKey marks a partition as provisioned.
	namespaceRowKey = "_namespace"
)

// tableClient is the subset of *aztables.Client used by Table.
type tableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

// Table stores snapshots in an Azure Storage table. The namespace is the
// partition key and the key is the row key. Each upsert replaces a single
// entity, which the service applies atomically.
type Table struct {
	client tableClient
	logger *log.Logger
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type snapshotEntity struct {
	entityKeys
	Snapshot     []byte `json:"Snapshot"`
	SnapshotType string `json:"Snapshot@odata.type"`
}

// NewTable wraps a table client.
func NewTable(client tableClient, logger *log.Logger) *Table {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Table{client: client, logger: logger}
}

// NewTableFromConnectionString connects to table in the storage account
// described by connStr.
func NewTableFromConnectionString(connStr, table string, logger *log.Logger) (*Table, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Second * 30,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return NewTable(svc.NewClient(table), logger), nil
}

// Close is a no-op; the table client holds no long-lived connection.
func (t *Table) Close() error { return nil }

// Provision creates the table when missing and marks the namespace partition.
func (t *Table) Provision(ctx context.Context, namespace string) error {
	if _, err := t.client.CreateTable(ctx, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return err
	}
	payload, err := json.Marshal(entityKeys{PartitionKey: namespace, RowKey: namespaceRowKey})
	if err != nil {
		return err
	}
	_, err = t.client.UpsertEntity(ctx, payload, nil)
	return err
}

func (t *Table) provisioned(ctx context.Context, namespace string) (bool, error) {
	if _, err := t.client.GetEntity(ctx, namespace, namespaceRowKey, nil); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *Table) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	ok, err := t.provisioned(ctx, namespace)
	if err != nil {
		t.logger.WithError(err).WithField("namespace", namespace).Debug("snapshot namespace lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	resp, err := t.client.GetEntity(ctx, namespace, key, nil)
	if err != nil {
		if !hasStatus(err, http.StatusNotFound) {
			t.logger.WithError(err).WithFields(log.Fields{"namespace": namespace, "key": key}).Debug("snapshot read failed")
		}
		return nil, false
	}
	var ent snapshotEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		t.logger.WithError(err).WithFields(log.Fields{"namespace": namespace, "key": key}).Debug("snapshot entity malformed")
		return nil, false
	}
	if ent.Snapshot == nil {
		return nil, false
	}
	return ent.Snapshot, true
}

func (t *Table) Set(ctx context.Context, namespace, key string, value []byte) error {
	ok, err := t.provisioned(ctx, namespace)
	if err != nil {
		return unavailable(namespace, key, err)
	}
	if !ok {
		return unavailable(namespace, key, nil)
	}
	if value == nil {
		value = []byte{}
	}
	payload, err := json.Marshal(snapshotEntity{
		entityKeys:   entityKeys{PartitionKey: namespace, RowKey: key},
		Snapshot:     value,
		SnapshotType: edmBinary,
	})
	if err != nil {
		return unavailable(namespace, key, err)
	}
	opts := &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}
	if _, err := t.client.UpsertEntity(ctx, payload, opts); err != nil {
		return unavailable(namespace, key, err)
	}
	return nil
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}
