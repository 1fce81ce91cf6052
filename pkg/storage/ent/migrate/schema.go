// Package migrate declares the gauntlet SQL tables and applies them with
// ent's schema migration engine.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	OperationsTable = "operations"
	MessagesTable   = "messages"
	PayloadsTable   = "payloads"
)

var (
	// OperationsColumns holds the columns for the "operations" table.
	OperationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString, Nullable: true},
		{Name: "malicious_goal", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "target_llm", Type: field.TypeString, Nullable: true},
		{Name: "target_persona", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "attack_vector", Type: field.TypeString, Nullable: true},
		{Name: "initial_prompt", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "status", Type: field.TypeString},
		{Name: "result", Type: field.TypeString, Nullable: true},
		{Name: "notes", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "start_time", Type: field.TypeTime, Nullable: true},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
	}
	// OperationsTableSchema holds the schema information for the "operations" table.
	OperationsTableSchema = &schema.Table{
		Name:       OperationsTable,
		Columns:    OperationsColumns,
		PrimaryKey: []*schema.Column{OperationsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "operation_status",
				Unique:  false,
				Columns: []*schema.Column{OperationsColumns[7]},
			},
			{
				Name:    "operation_created_at",
				Unique:  false,
				Columns: []*schema.Column{OperationsColumns[10]},
			},
		},
	}

	// MessagesColumns holds the columns for the "messages" table.
	MessagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "operation_id", Type: field.TypeString},
		{Name: "role", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "message_type", Type: field.TypeString, Nullable: true},
		{Name: "committed_at", Type: field.TypeTime},
	}
	// MessagesTableSchema holds the schema information for the "messages" table.
	// There is deliberately no foreign key to operations: messages hold a weak
	// back-reference resolved by query.
	MessagesTableSchema = &schema.Table{
		Name:       MessagesTable,
		Columns:    MessagesColumns,
		PrimaryKey: []*schema.Column{MessagesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "message_operation_id_committed_at",
				Unique:  false,
				Columns: []*schema.Column{MessagesColumns[1], MessagesColumns[5]},
			},
		},
	}

	// PayloadsColumns holds the columns for the "payloads" table.
	PayloadsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "attack_vector", Type: field.TypeString, Nullable: true},
		{Name: "target_llm", Type: field.TypeString, Nullable: true},
		{Name: "success_rate", Type: field.TypeFloat64, Default: 1.0},
		{Name: "operation_id", Type: field.TypeString, Nullable: true},
		{Name: "description", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	// PayloadsTableSchema holds the schema information for the "payloads" table.
	PayloadsTableSchema = &schema.Table{
		Name:       PayloadsTable,
		Columns:    PayloadsColumns,
		PrimaryKey: []*schema.Column{PayloadsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "payload_created_at_id",
				Unique:  false,
				Columns: []*schema.Column{PayloadsColumns[7], PayloadsColumns[0]},
			},
			{
				Name:    "payload_operation_id",
				Unique:  false,
				Columns: []*schema.Column{PayloadsColumns[5]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		OperationsTableSchema,
		MessagesTableSchema,
		PayloadsTableSchema,
	}
)

// Create runs ent's auto-migration for every gauntlet table. It only performs
// additive changes (new tables, columns, indexes).
func Create(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	return nil
}
