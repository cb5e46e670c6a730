package dynamo

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

// SessionStore keeps match sessions in a DynamoDB table keyed by id.
type SessionStore struct {
	client API
	table  string
	now    func() time.Time
}

var _ matchmaking.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a DynamoDB backed SessionStore.
func NewSessionStore(client API, table string) *SessionStore {
	return &SessionStore{client: client, table: table, now: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, session *matchmaking.MatchSession) error {
	now := s.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.Version = 1

	item, err := attributevalue.MarshalMap(toSessionItem(session))
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return matchmaking.NewStorageError("create session", err)
	}

	log.Info("Created match session", "sessionID", session.ID, "gameID", session.GameID, "players", session.PlayerIDs)
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*matchmaking.MatchSession, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, matchmaking.NewStorageError("get session", err)
	}
	if len(out.Item) == 0 {
		return nil, matchmaking.ErrSessionNotFound
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, matchmaking.NewStorageError("decode session", err)
	}
	return item.toSession(), nil
}

// Update replaces the session item only if the stored version still matches.
func (s *SessionStore) Update(ctx context.Context, session *matchmaking.MatchSession) (bool, error) {
	next := session.Clone()
	next.Version = session.Version + 1
	next.UpdatedAt = s.now()

	item, err := attributevalue.MarshalMap(toSessionItem(next))
	if err != nil {
		return false, err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(session.Version, 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			log.Debug("Session update lost to a concurrent writer", "sessionID", session.ID, "version", session.Version)
			return false, nil
		}
		return false, matchmaking.NewStorageError("update session", err)
	}

	session.Version = next.Version
	session.UpdatedAt = next.UpdatedAt
	return true, nil
}

func (s *SessionStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*matchmaking.MatchSession, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		IndexName:                aws.String(StatusExpiresIndex),
		KeyConditionExpression:   aws.String("#status = :pending AND expiresAt <= :now"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(matchmaking.SessionPending)},
			":now":     numberValue(now.UnixMilli()),
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, matchmaking.NewStorageError("list expired sessions", err)
	}
	var items []sessionItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, matchmaking.NewStorageError("decode sessions", err)
	}
	sessions := make([]*matchmaking.MatchSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.toSession())
	}
	return sessions, nil
}
