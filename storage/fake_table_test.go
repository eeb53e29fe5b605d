package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

type fakeTable struct {
	mu        sync.Mutex
	created   bool
	entities  map[string][]byte
	upsertErr error
}

func newFakeTable() *fakeTable {
	return &fakeTable{entities: map[string][]byte{}}
}

func (f *fakeTable) CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created {
		return aztables.CreateTableResponse{}, &azcore.ResponseError{StatusCode: 409, ErrorCode: "TableAlreadyExists"}
	}
	f.created = true
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTable) GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entities[partitionKey+"|"+rowKey]
	if !f.created || !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	return aztables.GetEntityResponse{Value: append([]byte(nil), v...)}, nil
}

func (f *fakeTable) UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return aztables.UpsertEntityResponse{}, f.upsertErr
	}
	var keys entityKeys
	if err := json.Unmarshal(entity, &keys); err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	f.entities[keys.PartitionKey+"|"+keys.RowKey] = append([]byte(nil), entity...)
	return aztables.UpsertEntityResponse{}, nil
}
