package services

import (
	"context"
	"testing"

	"trinity_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectionStub(conn models.Connection) *stubDB {
	return &stubDB{
		GetItemFunc: func(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
			return mustMarshal(conn), nil
		},
	}
}

func TestConnectWithRoomEntersInRoomState(t *testing.T) {
	var put *models.Connection
	db := &stubDB{
		PutItemFunc: func(ctx context.Context, tableName string, item interface{}) error {
			put = item.(*models.Connection)
			return nil
		},
	}
	publisher := &recordingPublisher{}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{Publisher: publisher}}

	conn, err := service.Connect(context.Background(), "user-1", "room-1")

	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusInRoom, conn.Status)
	assert.Equal(t, "room-1", conn.RoomID)
	assert.True(t, conn.IsActive)
	assert.NotEmpty(t, conn.ConnectionID)
	require.NotNil(t, put)

	events := publisher.eventsOf(EventRoomEvent)
	require.Len(t, events, 1)
	assert.Equal(t, models.RoomEventConnect, events[0].Payload.(models.RoomEvent).Kind)
}

func TestConnectWithoutRoomStaysConnected(t *testing.T) {
	publisher := &recordingPublisher{}
	service := &ConnectionService{Dynamo: &stubDB{}, Notifier: &NotificationService{Publisher: publisher}}

	conn, err := service.Connect(context.Background(), "user-1", "")

	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusConnected, conn.Status)
	assert.Empty(t, conn.RoomID)
	assert.Empty(t, publisher.events, "no room, no room event")
}

func TestDisconnectIsIdempotent(t *testing.T) {
	inactive := models.Connection{
		ConnectionID: "conn-1",
		UserID:       "user-1",
		Status:       models.ConnectionStatusDisconnected,
		IsActive:     false,
	}
	updated := false
	db := connectionStub(inactive)
	db.UpdateItemFunc = func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
		updated = true
		return map[string]types.AttributeValue{}, nil
	}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{}}

	ok, err := service.Disconnect(context.Background(), "conn-1")

	require.NoError(t, err)
	assert.True(t, ok, "repeat disconnect is a success, not an error")
	assert.False(t, updated, "an already-inactive connection is left untouched")
}

func TestDisconnectClearsRoomAndNotifies(t *testing.T) {
	active := models.Connection{
		ConnectionID: "conn-1",
		UserID:       "user-1",
		RoomID:       "room-1",
		Status:       models.ConnectionStatusInRoom,
		IsActive:     true,
	}
	var updateExpr string
	db := connectionStub(active)
	db.UpdateItemFunc = func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
		updateExpr = updateExpression
		return map[string]types.AttributeValue{}, nil
	}
	publisher := &recordingPublisher{}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{Publisher: publisher}}

	ok, err := service.Disconnect(context.Background(), "conn-1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, updateExpr, "REMOVE roomId")

	events := publisher.eventsOf(EventRoomEvent)
	require.Len(t, events, 1)
	event := events[0].Payload.(models.RoomEvent)
	assert.Equal(t, models.RoomEventDisconnect, event.Kind)
	assert.Equal(t, "room-1", event.RoomID)
}

func TestPingInactiveConnectionIsNoOp(t *testing.T) {
	inactive := models.Connection{
		ConnectionID: "conn-1",
		Status:       models.ConnectionStatusDisconnected,
		IsActive:     false,
	}
	updated := false
	db := connectionStub(inactive)
	db.UpdateItemFunc = func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
		updated = true
		return map[string]types.AttributeValue{}, nil
	}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{}}

	ok, err := service.Ping(context.Background(), "conn-1")

	require.NoError(t, err)
	assert.False(t, ok, "a ping must not resurrect a dead connection")
	assert.False(t, updated)
}

func TestJoinRoomRejectsInactiveConnection(t *testing.T) {
	inactive := models.Connection{
		ConnectionID: "conn-1",
		Status:       models.ConnectionStatusDisconnected,
		IsActive:     false,
	}
	service := &ConnectionService{Dynamo: connectionStub(inactive), Notifier: &NotificationService{}}

	_, err := service.JoinRoom(context.Background(), "conn-1", "room-1")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestJoinThenLeaveRoomTransitions(t *testing.T) {
	conn := models.Connection{
		ConnectionID: "conn-1",
		UserID:       "user-1",
		Status:       models.ConnectionStatusConnected,
		IsActive:     true,
	}
	var exprs []string
	db := connectionStub(conn)
	db.GetItemFunc = func(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
		return mustMarshal(conn), nil
	}
	db.UpdateItemFunc = func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
		exprs = append(exprs, updateExpression)
		return map[string]types.AttributeValue{}, nil
	}
	publisher := &recordingPublisher{}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{Publisher: publisher}}

	ok, err := service.JoinRoom(context.Background(), "conn-1", "room-1")
	require.NoError(t, err)
	assert.True(t, ok)

	conn.RoomID = "room-1"
	conn.Status = models.ConnectionStatusInRoom

	ok, err = service.LeaveRoom(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, exprs, 2)
	assert.Contains(t, exprs[0], "roomId = :roomId")
	assert.Contains(t, exprs[1], "REMOVE roomId")
	assert.Len(t, publisher.eventsOf(EventRoomEvent), 2)
}

func TestLeaveRoomWithoutRoomIsNoOp(t *testing.T) {
	conn := models.Connection{
		ConnectionID: "conn-1",
		Status:       models.ConnectionStatusConnected,
		IsActive:     true,
	}
	publisher := &recordingPublisher{}
	service := &ConnectionService{Dynamo: connectionStub(conn), Notifier: &NotificationService{Publisher: publisher}}

	ok, err := service.LeaveRoom(context.Background(), "conn-1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, publisher.events)
}

func TestGetActiveConnectionsScopedUsesRoomIndex(t *testing.T) {
	rows := []models.Connection{
		{ConnectionID: "conn-1", RoomID: "room-1", IsActive: true},
		{ConnectionID: "conn-2", RoomID: "room-1", IsActive: false},
	}
	var indexUsed string
	db := &stubDB{
		QueryWithIndexFunc: func(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
			indexUsed = indexName
			var items []map[string]types.AttributeValue
			for _, row := range rows {
				items = append(items, mustMarshal(row))
			}
			return items, nil
		},
	}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{}}

	conns, err := service.GetActiveConnections(context.Background(), "room-1")

	require.NoError(t, err)
	assert.Equal(t, models.ConnectionsRoomIndex, indexUsed)
	require.Len(t, conns, 1, "inactive rows are filtered out")
	assert.Equal(t, "conn-1", conns[0].ConnectionID)
}

func TestGetActiveConnectionsUnscopedScans(t *testing.T) {
	scanned := false
	db := &stubDB{
		ScanItemsFunc: func(ctx context.Context, tableName string, filterExpression string, values map[string]types.AttributeValue, names map[string]string) ([]map[string]types.AttributeValue, error) {
			scanned = true
			assert.Contains(t, filterExpression, "isActive")
			return []map[string]types.AttributeValue{
				mustMarshal(models.Connection{ConnectionID: "conn-1", IsActive: true}),
			}, nil
		},
	}
	service := &ConnectionService{Dynamo: db, Notifier: &NotificationService{}}

	conns, err := service.GetActiveConnections(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, scanned)
	assert.Len(t, conns, 1)
}

func TestDisconnectUnknownConnection(t *testing.T) {
	service := &ConnectionService{Dynamo: &stubDB{}, Notifier: &NotificationService{}}

	_, err := service.Disconnect(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}
