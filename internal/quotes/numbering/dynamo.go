package numbering

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// UpdateItemAPI is the slice of the DynamoDB client the counter needs.
type UpdateItemAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoCounter increments with UpdateItem ADD, which DynamoDB applies
// atomically per item.
//
// Table requirements:
//   - PK: company_id (string)
type DynamoCounter struct {
	ddb   UpdateItemAPI
	table string
}

type counterItem struct {
	LastNumber int64 `dynamodbav:"last_number"`
}

func NewDynamoCounter(ddb UpdateItemAPI, table string) *DynamoCounter {
	return &DynamoCounter{ddb: ddb, table: table}
}

func (c *DynamoCounter) Next(ctx context.Context, companyID uuid.UUID) (int64, error) {
	out, err := c.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"company_id": &types.AttributeValueMemberS{Value: companyID.String()},
		},
		UpdateExpression:         aws.String("ADD #n :one"),
		ExpressionAttributeNames: map[string]string{"#n": "last_number"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, fmt.Errorf("decode counter item: %w", err)
	}
	if item.LastNumber < 1 {
		return 0, fmt.Errorf("counter item missing last_number")
	}
	return item.LastNumber, nil
}
