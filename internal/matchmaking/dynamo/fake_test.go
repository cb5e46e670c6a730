package dynamo

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// fakeAPI records every call and delegates to the configured funcs.
type fakeAPI struct {
	mu sync.Mutex

	PutItemFunc    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	GetItemFunc    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	UpdateItemFunc func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	QueryFunc      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	ScanFunc       func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)

	PutItemCalls    []*dynamodb.PutItemInput
	UpdateItemCalls []*dynamodb.UpdateItemInput
	QueryCalls      []*dynamodb.QueryInput
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutItemCalls = append(f.PutItemCalls, in)
	if f.PutItemFunc != nil {
		return f.PutItemFunc(in)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetItemFunc != nil {
		return f.GetItemFunc(in)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateItemCalls = append(f.UpdateItemCalls, in)
	if f.UpdateItemFunc != nil {
		return f.UpdateItemFunc(in)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Copy so later pagination mutations do not rewrite the record.
	recorded := *in
	f.QueryCalls = append(f.QueryCalls, &recorded)
	if f.QueryFunc != nil {
		return f.QueryFunc(in)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScanFunc != nil {
		return f.ScanFunc(in)
	}
	return &dynamodb.ScanOutput{}, nil
}
