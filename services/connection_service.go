package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trinity_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ConnectionService owns realtime subscriber records and their state
// machine: CONNECTING → CONNECTED → IN_ROOM → CONNECTED → DISCONNECTED.
// A connectionId is generated once and never reassigned to another user.
type ConnectionService struct {
	Dynamo   DB
	Notifier *NotificationService
}

// Connect registers a new subscriber, optionally already attached to a room.
func (s *ConnectionService) Connect(ctx context.Context, userID, roomID string) (*models.Connection, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	conn := &models.Connection{
		ConnectionID: uuid.NewString(),
		UserID:       userID,
		Status:       models.ConnectionStatusConnected,
		IsActive:     true,
		ConnectedAt:  now,
		LastPingAt:   now,
	}
	if roomID != "" {
		conn.RoomID = roomID
		conn.Status = models.ConnectionStatusInRoom
	}

	if err := withRetries(ctx, "Connect:putConnection", func() error {
		return s.Dynamo.PutItem(ctx, models.ConnectionsTable, conn)
	}); err != nil {
		return nil, err
	}

	if roomID != "" {
		s.Notifier.PublishRoomEvent(models.RoomEvent{
			Kind:      models.RoomEventConnect,
			RoomID:    roomID,
			UserID:    userID,
			Timestamp: now,
		})
	}
	log.Printf("✅ Connection %s established for user %s", conn.ConnectionID, userID)
	return conn, nil
}

// Disconnect deactivates a connection. Disconnecting an already-inactive
// connection is a no-op success, not an error.
func (s *ConnectionService) Disconnect(ctx context.Context, connectionID string) (bool, error) {
	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if !conn.IsActive {
		return true, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "Disconnect:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.ConnectionsTable,
			"SET #s = :status, isActive = :inactive, lastPingAt = :now REMOVE roomId",
			connectionKey(connectionID),
			map[string]types.AttributeValue{
				":status":   &types.AttributeValueMemberS{Value: models.ConnectionStatusDisconnected},
				":inactive": &types.AttributeValueMemberBOOL{Value: false},
				":now":      &types.AttributeValueMemberS{Value: now},
			},
			map[string]string{"#s": "status"})
		return updErr
	}); err != nil {
		return false, err
	}

	if conn.RoomID != "" {
		s.Notifier.PublishRoomEvent(models.RoomEvent{
			Kind:      models.RoomEventDisconnect,
			RoomID:    conn.RoomID,
			UserID:    conn.UserID,
			Timestamp: now,
		})
	}
	log.Printf("👋 Connection %s disconnected", connectionID)
	return true, nil
}

// JoinRoom attaches an active connection to a room (CONNECTED → IN_ROOM).
func (s *ConnectionService) JoinRoom(ctx context.Context, connectionID, roomID string) (bool, error) {
	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if !conn.IsActive {
		return false, ErrConnectionNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "ConnectionJoinRoom:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.ConnectionsTable,
			"SET roomId = :roomId, #s = :status, lastPingAt = :now",
			connectionKey(connectionID),
			map[string]types.AttributeValue{
				":roomId": &types.AttributeValueMemberS{Value: roomID},
				":status": &types.AttributeValueMemberS{Value: models.ConnectionStatusInRoom},
				":now":    &types.AttributeValueMemberS{Value: now},
			},
			map[string]string{"#s": "status"})
		return updErr
	}); err != nil {
		return false, err
	}

	s.Notifier.PublishRoomEvent(models.RoomEvent{
		Kind:      models.RoomEventConnect,
		RoomID:    roomID,
		UserID:    conn.UserID,
		Timestamp: now,
	})
	return true, nil
}

// LeaveRoom detaches a connection from its room (IN_ROOM → CONNECTED).
func (s *ConnectionService) LeaveRoom(ctx context.Context, connectionID string) (bool, error) {
	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if !conn.IsActive {
		return false, ErrConnectionNotFound
	}
	if conn.RoomID == "" {
		return true, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "ConnectionLeaveRoom:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.ConnectionsTable,
			"SET #s = :status, lastPingAt = :now REMOVE roomId",
			connectionKey(connectionID),
			map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: models.ConnectionStatusConnected},
				":now":    &types.AttributeValueMemberS{Value: now},
			},
			map[string]string{"#s": "status"})
		return updErr
	}); err != nil {
		return false, err
	}

	s.Notifier.PublishRoomEvent(models.RoomEvent{
		Kind:      models.RoomEventDisconnect,
		RoomID:    conn.RoomID,
		UserID:    conn.UserID,
		Timestamp: now,
	})
	return true, nil
}

// Ping refreshes lastPingAt without changing state. Pinging an inactive
// connection is a no-op false — the connection stays inactive.
func (s *ConnectionService) Ping(ctx context.Context, connectionID string) (bool, error) {
	conn, err := s.getConnection(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if !conn.IsActive {
		return false, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "Ping:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.ConnectionsTable,
			"SET lastPingAt = :now",
			connectionKey(connectionID),
			map[string]types.AttributeValue{
				":now": &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		return false, err
	}
	return true, nil
}

// GetActiveConnections lists active subscribers, optionally scoped to one
// room through the room GSI. The unscoped listing is the only scan in the
// system.
func (s *ConnectionService) GetActiveConnections(ctx context.Context, roomID string) ([]models.Connection, error) {
	var items []map[string]types.AttributeValue
	var err error

	if roomID != "" {
		err = withRetries(ctx, "GetActiveConnections:query", func() error {
			var queryErr error
			items, queryErr = s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionsTable, models.ConnectionsRoomIndex,
				"roomId = :roomId",
				map[string]types.AttributeValue{
					":roomId": &types.AttributeValueMemberS{Value: roomID},
				}, nil, 100, false)
			return queryErr
		})
	} else {
		err = withRetries(ctx, "GetActiveConnections:scan", func() error {
			var scanErr error
			items, scanErr = s.Dynamo.ScanItems(ctx, models.ConnectionsTable,
				"isActive = :active",
				map[string]types.AttributeValue{
					":active": &types.AttributeValueMemberBOOL{Value: true},
				}, nil)
			return scanErr
		})
	}
	if err != nil {
		return nil, err
	}

	var connections []models.Connection
	for _, item := range items {
		var conn models.Connection
		if umErr := attributevalue.UnmarshalMap(item, &conn); umErr != nil {
			log.Printf("⚠️ Skipping unreadable connection row: %v", umErr)
			continue
		}
		if conn.IsActive {
			connections = append(connections, conn)
		}
	}
	return connections, nil
}

func (s *ConnectionService) getConnection(ctx context.Context, connectionID string) (*models.Connection, error) {
	var item map[string]types.AttributeValue
	err := withRetries(ctx, "getConnection", func() error {
		var getErr error
		item, getErr = s.Dynamo.GetItem(ctx, models.ConnectionsTable, connectionKey(connectionID))
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}

	var conn models.Connection
	if umErr := attributevalue.UnmarshalMap(item, &conn); umErr != nil {
		return nil, fmt.Errorf("%w: unreadable connection row %s: %v", ErrSchemaMismatch, connectionID, umErr)
	}
	return &conn, nil
}

func connectionKey(connectionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"connectionId": &types.AttributeValueMemberS{Value: connectionID},
	}
}
