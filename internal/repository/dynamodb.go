package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/catalog-service/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dynamoKeyAttribute = "id"

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoRepository.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type DynamoRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// productItem is the stored document shape.
type productItem struct {
	ID          string      `dynamodbav:"id"`
	Name        string      `dynamodbav:"name"`
	Description string      `dynamodbav:"description"`
	Price       dynamoPrice `dynamodbav:"price"`
	CreatedAt   time.Time   `dynamodbav:"created_at"`
	UpdatedAt   time.Time   `dynamodbav:"updated_at"`
}

// dynamoPrice stores a decimal as a DynamoDB number, which keeps up to 38
// significant digits exactly.
type dynamoPrice decimal.Decimal

func (p dynamoPrice) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(p).String()}, nil
}

func (p *dynamoPrice) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		*p = dynamoPrice(decimal.Zero)
		return nil
	default:
		return fmt.Errorf("unsupported price attribute type %T", av)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	*p = dynamoPrice(d)
	return nil
}

func NewDynamoDBClient(ctx context.Context, cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// DynamoDB Local accepts any credentials.
	if cfg.DynamoDBEndpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewDynamoRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *DynamoRepository {
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("dynamodb"),
	}
}

func (r *DynamoRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	return r.put(ctx, product, false)
}

func (r *DynamoRepository) Insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	return r.put(ctx, product, true)
}

func (r *DynamoRepository) put(ctx context.Context, product *domain.Product, onlyIfAbsent bool) (*domain.Product, error) {
	saved := *product
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	av, err := attributevalue.MarshalMap(toItem(&saved))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if onlyIfAbsent {
		expr, err := expression.NewBuilder().
			WithCondition(expression.AttributeNotExists(expression.Name(dynamoKeyAttribute))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrDuplicateProduct
		}
		return nil, fmt.Errorf("failed to put item: %w", err)
	}

	r.logger.Debug("Item written", zap.String("product_id", saved.ID), zap.Bool("conditional", onlyIfAbsent))
	return &saved, nil
}

func (r *DynamoRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            keyOf(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return item.toDomain(), nil
}

func (r *DynamoRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
			TableName:      aws.String(r.tableName),
			ConsistentRead: aws.Bool(true),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(nil, fmt.Errorf("failed to scan items: %w", err))
				return
			}

			for _, av := range page.Items {
				var item productItem
				if err := attributevalue.UnmarshalMap(av, &item); err != nil {
					yield(nil, fmt.Errorf("failed to unmarshal product: %w", err))
					return
				}
				if !yield(item.toDomain(), nil) {
					return
				}
			}
		}
	}
}

func (r *DynamoRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(dynamoKeyAttribute))).
		Build()
	if err != nil {
		return false, fmt.Errorf("failed to build projection: %w", err)
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      keyOf(id),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item: %w", err)
	}

	return result.Item != nil, nil
}

func (r *DynamoRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       keyOf(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func toItem(p *domain.Product) productItem {
	return productItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       dynamoPrice(p.Price),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (i productItem) toDomain() *domain.Product {
	return &domain.Product{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       decimal.Decimal(i.Price),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
