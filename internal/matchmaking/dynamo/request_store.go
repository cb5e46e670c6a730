package dynamo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

// RequestStore keeps match requests in a DynamoDB table keyed by id.
type RequestStore struct {
	client API
	table  string
	now    func() time.Time
}

var _ matchmaking.RequestStore = (*RequestStore)(nil)

// NewRequestStore creates a DynamoDB backed RequestStore.
func NewRequestStore(client API, table string) *RequestStore {
	return &RequestStore{client: client, table: table, now: time.Now}
}

func (s *RequestStore) Submit(ctx context.Context, request *matchmaking.MatchRequest) (string, error) {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = s.now()
	}
	if request.Status == "" {
		request.Status = matchmaking.RequestQueued
	}

	item, err := attributevalue.MarshalMap(toRequestItem(request))
	if err != nil {
		return "", err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", matchmaking.NewStorageError("submit request", err)
	}

	log.Debug("Stored match request", "requestID", request.ID, "userID", request.UserID, "gameID", request.GameID)
	return request.ID, nil
}

func (s *RequestStore) Get(ctx context.Context, id string) (*matchmaking.MatchRequest, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, matchmaking.NewStorageError("get request", err)
	}
	if len(out.Item) == 0 {
		return nil, matchmaking.ErrRequestNotFound
	}
	var item requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, matchmaking.NewStorageError("decode request", err)
	}
	return item.toRequest(), nil
}

// FindCandidates queries the game/status index oldest first. Filters apply
// after DynamoDB's page limit, so it pages until limit rows survive.
func (s *RequestStore) FindCandidates(ctx context.Context, request *matchmaking.MatchRequest, limit int) ([]*matchmaking.MatchRequest, error) {
	if limit <= 0 {
		limit = matchmaking.DefaultCandidateLimit
	}

	filter := "id <> :id AND userId <> :userId AND expiresAt > :now"
	values := map[string]types.AttributeValue{
		":gs":     &types.AttributeValueMemberS{Value: gameStatus(request.GameID, matchmaking.RequestQueued)},
		":id":     &types.AttributeValueMemberS{Value: request.ID},
		":userId": &types.AttributeValueMemberS{Value: request.UserID},
		":now":    numberValue(s.now().UnixMilli()),
	}
	if request.Region != nil {
		filter += " AND #region = :region"
		values[":region"] = &types.AttributeValueMemberS{Value: *request.Region}
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(GameStatusIndex),
		KeyConditionExpression:    aws.String("gameStatus = :gs"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(int32(limit)),
	}
	if request.Region != nil {
		input.ExpressionAttributeNames = map[string]string{"#region": "region"}
	}

	var candidates []*matchmaking.MatchRequest
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, matchmaking.NewStorageError("find candidates", err)
		}
		var items []requestItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, matchmaking.NewStorageError("decode candidates", err)
		}
		for _, item := range items {
			candidates = append(candidates, item.toRequest())
			if len(candidates) == limit {
				return candidates, nil
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return candidates, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Reserve is a conditional update on the status attribute.
func (s *RequestStore) Reserve(ctx context.Context, id string, expectedStatus matchmaking.RequestStatus, sessionID string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.table),
		Key:                  idKey(id),
		ProjectionExpression: aws.String("gameId"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, matchmaking.NewStorageError("reserve request", err)
	}
	if len(out.Item) == 0 {
		return false, nil
	}
	var item requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, matchmaking.NewStorageError("reserve request", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET #status = :matched, gameStatus = :gs, matchSessionId = :sid, updatedAt = :now"),
		ConditionExpression: aws.String("#status = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matched":  &types.AttributeValueMemberS{Value: string(matchmaking.RequestMatched)},
			":gs":       &types.AttributeValueMemberS{Value: gameStatus(item.GameID, matchmaking.RequestMatched)},
			":sid":      &types.AttributeValueMemberS{Value: sessionID},
			":now":      numberValue(s.now().UnixMilli()),
			":expected": &types.AttributeValueMemberS{Value: string(expectedStatus)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			log.Debug("Reservation lost", "requestID", id, "sessionID", sessionID)
			return false, nil
		}
		return false, matchmaking.NewStorageError("reserve request", err)
	}
	return true, nil
}

// Release requeues each request matched into sessionID with its own
// conditional update; requests that moved on are left alone.
func (s *RequestStore) Release(ctx context.Context, sessionID string, ids []string) error {
	for _, id := range ids {
		request, err := s.Get(ctx, id)
		if errors.Is(err, matchmaking.ErrRequestNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(s.table),
			Key:                 idKey(id),
			UpdateExpression:    aws.String("SET #status = :queued, gameStatus = :gs, updatedAt = :now REMOVE matchSessionId"),
			ConditionExpression: aws.String("#status = :matched AND matchSessionId = :sid"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":queued":  &types.AttributeValueMemberS{Value: string(matchmaking.RequestQueued)},
				":matched": &types.AttributeValueMemberS{Value: string(matchmaking.RequestMatched)},
				":sid":     &types.AttributeValueMemberS{Value: sessionID},
				":gs":      &types.AttributeValueMemberS{Value: gameStatus(request.GameID, matchmaking.RequestQueued)},
				":now":     numberValue(s.now().UnixMilli()),
			},
		})
		if err != nil && !isConditionFailed(err) {
			return matchmaking.NewStorageError("release requests", err)
		}
	}
	log.Info("Released match requests", "sessionID", sessionID, "ids", ids)
	return nil
}

func (s *RequestStore) CountQueued(ctx context.Context, gameID string) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(GameStatusIndex),
		KeyConditionExpression: aws.String("gameStatus = :gs"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gs": &types.AttributeValueMemberS{Value: gameStatus(gameID, matchmaking.RequestQueued)},
		},
		Select: types.SelectCount,
	}
	total := 0
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return 0, matchmaking.NewStorageError("count queued", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *RequestStore) Cancel(ctx context.Context, id string, userID string) (bool, error) {
	request, err := s.Get(ctx, id)
	if errors.Is(err, matchmaking.ErrRequestNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET #status = :cancelled, gameStatus = :gs, updatedAt = :now"),
		ConditionExpression: aws.String("#status = :queued AND userId = :userId"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cancelled": &types.AttributeValueMemberS{Value: string(matchmaking.RequestCancelled)},
			":queued":    &types.AttributeValueMemberS{Value: string(matchmaking.RequestQueued)},
			":userId":    &types.AttributeValueMemberS{Value: userID},
			":gs":        &types.AttributeValueMemberS{Value: gameStatus(request.GameID, matchmaking.RequestCancelled)},
			":now":       numberValue(s.now().UnixMilli()),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, matchmaking.NewStorageError("cancel request", err)
	}
	return true, nil
}

// ExpireStale flips overdue queued requests to expired. The table's ttl
// attribute removes them later; this keeps the status honest until then.
func (s *RequestStore) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		FilterExpression:         aws.String("#status = :queued AND expiresAt <= :now"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":queued": &types.AttributeValueMemberS{Value: string(matchmaking.RequestQueued)},
			":now":    numberValue(now.UnixMilli()),
		},
	}

	expired := 0
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return expired, matchmaking.NewStorageError("expire requests", err)
		}
		var items []requestItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return expired, matchmaking.NewStorageError("decode requests", err)
		}
		for _, item := range items {
			_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
				TableName:                aws.String(s.table),
				Key:                      idKey(item.ID),
				UpdateExpression:         aws.String("SET #status = :expired, gameStatus = :gs, updatedAt = :now"),
				ConditionExpression:      aws.String("#status = :queued"),
				ExpressionAttributeNames: map[string]string{"#status": "status"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":expired": &types.AttributeValueMemberS{Value: string(matchmaking.RequestExpired)},
					":queued":  &types.AttributeValueMemberS{Value: string(matchmaking.RequestQueued)},
					":gs":      &types.AttributeValueMemberS{Value: gameStatus(item.GameID, matchmaking.RequestExpired)},
					":now":     numberValue(now.UnixMilli()),
				},
			})
			if err != nil {
				if isConditionFailed(err) {
					continue
				}
				return expired, matchmaking.NewStorageError("expire requests", err)
			}
			expired++
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if expired > 0 {
		log.Info("Expired stale match requests", "count", expired)
	}
	return expired, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func numberValue(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
