package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"moviehub/movie"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Items are keyed by "id". Every other record field is stored as a
// top-level attribute with createdAt as an RFC 3339 string.
const keyAttribute = "id"

// The condition every owner-scoped write is guarded by.
const ownerCondition = "attribute_exists(#id) AND #owner = :owner"

type MovieRepository struct {
	client *dynamodb.Client
	table  string
}

// NewMovieRepository binds client to the movies table.
func NewMovieRepository(client *dynamodb.Client, table string) (*MovieRepository, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("dynamodb: table name is required")
	}
	return &MovieRepository{
		client: client,
		table:  table,
	}, nil
}

// EnsureTable creates the movies table with on-demand billing if it does
// not exist yet.
func (r *MovieRepository) EnsureTable(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &r.table})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("dynamodb: describe table: %w", err)
	}

	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &r.table,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttribute), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("dynamodb: create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &r.table}, time.Minute); err != nil {
		return fmt.Errorf("dynamodb: wait for table: %w", err)
	}
	return nil
}

// Find scans the table and applies q in memory.
func (r *MovieRepository) Find(ctx context.Context, q movie.Query) ([]movie.Movie, error) {
	input := &dynamodb.ScanInput{TableName: &r.table}
	if q.AddedBy != "" {
		input.FilterExpression = aws.String("#owner = :owner")
		input.ExpressionAttributeNames = map[string]string{"#owner": movie.FieldAddedBy}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: q.AddedBy},
		}
	}

	var movies []movie.Movie
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: scan movies: %w", err)
		}

		for _, item := range out.Items {
			m, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			movies = append(movies, m)
		}
	}

	return q.Select(movies), nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (movie.Movie, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return movie.Movie{}, fmt.Errorf("dynamodb: get movie: %w", err)
	}
	if len(out.Item) == 0 {
		return movie.Movie{}, movie.ErrNotFound
	}

	return fromItem(out.Item)
}

func (r *MovieRepository) Insert(ctx context.Context, m movie.Movie) (string, error) {
	m.ID = movie.NewID()
	item, err := toItem(m)
	if err != nil {
		return "", err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &r.table,
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": keyAttribute},
	})
	if err != nil {
		return "", fmt.Errorf("dynamodb: put movie: %w", err)
	}

	return m.ID, nil
}

func (r *MovieRepository) Update(ctx context.Context, id, owner string, p movie.Patch) error {
	expr, names, values, err := updateExpression(p)
	if err != nil {
		return err
	}
	names["#id"] = keyAttribute
	names["#owner"] = movie.FieldAddedBy
	values[":owner"] = &types.AttributeValueMemberS{Value: owner}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &r.table,
		Key:                       itemKey(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String(ownerCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return movie.ErrNotFound
		}
		return fmt.Errorf("dynamodb: update movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, id, owner string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &r.table,
		Key:                 itemKey(id),
		ConditionExpression: aws.String(ownerCondition),
		ExpressionAttributeNames: map[string]string{
			"#id":    keyAttribute,
			"#owner": movie.FieldAddedBy,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return movie.ErrNotFound
		}
		return fmt.Errorf("dynamodb: delete movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: &r.table,
		Select:    types.SelectCount,
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("dynamodb: count movies: %w", err)
		}
		n += int64(out.Count)
	}
	return n, nil
}

// Ping checks that the table is reachable.
func (r *MovieRepository) Ping(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &r.table}); err != nil {
		return fmt.Errorf("dynamodb: describe table: %w", err)
	}
	return nil
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func toItem(m movie.Movie) (map[string]types.AttributeValue, error) {
	fields := m.Fields()
	delete(fields, movie.FieldID)
	fields[keyAttribute] = m.ID
	fields[movie.FieldCreatedAt] = m.CreatedAt.UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: marshal movie: %w", err)
	}
	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (movie.Movie, error) {
	var fields map[string]any
	if err := attributevalue.UnmarshalMap(item, &fields); err != nil {
		return movie.Movie{}, fmt.Errorf("dynamodb: unmarshal movie: %w", err)
	}

	fields[movie.FieldID] = fields[keyAttribute]
	delete(fields, keyAttribute)

	m, err := movie.FromFields(fields)
	if err != nil {
		return movie.Movie{}, fmt.Errorf("dynamodb: decode movie: %w", err)
	}
	return m, nil
}

// updateExpression renders p as a SET expression. Attribute names are
// always aliased since record fields may collide with reserved words.
func updateExpression(p movie.Patch) (string, map[string]string, map[string]types.AttributeValue, error) {
	set := p.Set()
	names := make(map[string]string, len(set)+2)
	values := make(map[string]types.AttributeValue, len(set)+1)
	clauses := make([]string, 0, len(set))

	for i, k := range slices.Sorted(maps.Keys(set)) {
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("dynamodb: marshal %s: %w", k, err)
		}
		name, value := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		names[name] = k
		values[value] = av
		clauses = append(clauses, name+" = "+value)
	}

	return "SET " + strings.Join(clauses, ", "), names, values, nil
}
