package dynamo

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSession() *matchmaking.MatchSession {
	expires := time.Now().Add(90 * time.Second)
	return &matchmaking.MatchSession{
		ID:         "s1",
		GameID:     "valorant",
		PlayerIDs:  []string{"a", "b"},
		RequestIDs: []string{"ra", "rb"},
		Status:     matchmaking.SessionPending,
		ExpiresAt:  &expires,
	}
}

func TestSessionCreateAndGet_RoundTrip(t *testing.T) {
	api := &fakeAPI{}
	store := NewSessionStore(api, "sessions")

	session := pendingSession()
	require.NoError(t, store.Create(t.Context(), session))
	assert.Equal(t, int64(1), session.Version)
	require.Len(t, api.PutItemCalls, 1)

	stored := api.PutItemCalls[0].Item
	api.GetItemFunc = func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		return &dynamodb.GetItemOutput{Item: stored}, nil
	}

	got, err := store.Get(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.PlayerIDs)
	assert.Equal(t, []string{}, got.AcceptedBy)
	assert.Equal(t, session.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())
	assert.Nil(t, got.StartedAt)
}

func TestSessionGet_NotFound(t *testing.T) {
	store := NewSessionStore(&fakeAPI{}, "sessions")

	_, err := store.Get(t.Context(), "nope")
	assert.ErrorIs(t, err, matchmaking.ErrSessionNotFound)
}

func TestSessionUpdate(t *testing.T) {
	t.Run("bumps version on success", func(t *testing.T) {
		api := &fakeAPI{}
		store := NewSessionStore(api, "sessions")
		session := pendingSession()
		session.Version = 3

		ok, err := store.Update(t.Context(), session)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(4), session.Version)

		in := api.PutItemCalls[0]
		assert.Equal(t, "version = :expected", aws.ToString(in.ConditionExpression))
		assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, in.ExpressionAttributeValues[":expected"])
		var item sessionItem
		require.NoError(t, attributevalue.UnmarshalMap(in.Item, &item))
		assert.Equal(t, int64(4), item.Version)
	})

	t.Run("stale version loses", func(t *testing.T) {
		api := &fakeAPI{
			PutItemFunc: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}
		store := NewSessionStore(api, "sessions")
		session := pendingSession()
		session.Version = 3

		ok, err := store.Update(t.Context(), session)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(3), session.Version)
	})

	t.Run("backend failure is a storage error", func(t *testing.T) {
		api := &fakeAPI{
			PutItemFunc: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
				return nil, errors.New("boom")
			},
		}
		store := NewSessionStore(api, "sessions")

		_, err := store.Update(t.Context(), pendingSession())
		assert.True(t, matchmaking.IsStorage(err))
	})
}

func TestListExpiredPending_QueriesStatusIndex(t *testing.T) {
	session := pendingSession()
	item, err := attributevalue.MarshalMap(toSessionItem(session))
	require.NoError(t, err)

	api := &fakeAPI{
		QueryFunc: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
		},
	}
	store := NewSessionStore(api, "sessions")

	sessions, err := store.ListExpiredPending(t.Context(), time.Now(), 25)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, StatusExpiresIndex, aws.ToString(api.QueryCalls[0].IndexName))
	assert.Equal(t, int32(25), aws.ToInt32(api.QueryCalls[0].Limit))
}
