package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-social-auth/internal/config"
)

// TableCreator is the part of *dynamodb.Client that Bootstrap needs.
type TableCreator interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Bootstrap creates the users table and its email-index GSI. A table that
// already exists is left untouched, so it runs on every start.
func Bootstrap(ctx context.Context, client TableCreator, tables config.DynamoTables) error {
	_, err := client.CreateTable(ctx, usersTable(tables.Users))
	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		slog.Debug("table exists", "table", tables.Users)
		return nil
	case err != nil:
		return fmt.Errorf("create table %s: %w", tables.Users, err)
	}
	slog.Info("created table", "table", tables.Users)
	return nil
}

func usersTable(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrName), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrEmail), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrName), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName:  aws.String(emailIndex),
			KeySchema:  []types.KeySchemaElement{{AttributeName: aws.String(attrEmail), KeyType: types.KeyTypeHash}},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}
