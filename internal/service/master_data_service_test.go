package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository/memory"
)

func newMasterDataFixture(t *testing.T) (MasterDataService, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	svc := NewMasterDataService(
		memory.NewSupplierRepository(store),
		memory.NewUOMRepository(store),
		memory.NewItemRepository(store),
		memory.NewWarehouseRepository(store),
		memory.NewPurchaseOrderRepository(store),
		memory.NewTxManager(),
	)
	return svc, store, context.Background()
}

func TestCreateSupplierAssignsSequentialCodes(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	first, err := svc.CreateSupplier(ctx, SupplierRequest{Name: "Acme Trading"})
	require.NoError(t, err)
	assert.Equal(t, "SUP0001", first.Code)
	assert.True(t, first.IsActive)

	second, err := svc.CreateSupplier(ctx, SupplierRequest{Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, "SUP0002", second.Code)

	_, err = svc.CreateSupplier(ctx, SupplierRequest{Name: "  "})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestDeleteSupplierBlockedByOrders(t *testing.T) {
	svc, store, ctx := newMasterDataFixture(t)

	supplier, err := svc.CreateSupplier(ctx, SupplierRequest{Name: "Acme Trading"})
	require.NoError(t, err)

	orders := memory.NewPurchaseOrderRepository(store)
	po := &model.PurchaseOrder{PONumber: "PO-010326-001", SupplierID: supplier.ID, Status: "Draft"}
	require.NoError(t, orders.Create(ctx, po, nil))

	assert.True(t, apperr.IsReferential(svc.DeleteSupplier(ctx, supplier.ID)))

	free, err := svc.CreateSupplier(ctx, SupplierRequest{Name: "Globex"})
	require.NoError(t, err)
	assert.NoError(t, svc.DeleteSupplier(ctx, free.ID))
}

func TestCreateUOM(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	uom, err := svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram"})
	require.NoError(t, err)
	assert.Equal(t, "UOM001", uom.Code)
	assert.Equal(t, "Kg", uom.ShortCode)

	_, err = svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram again"})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `unit code "Kg" already exists`)

	_, err = svc.CreateUOM(ctx, UOMRequest{})
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, v.Violations, 2)
}

func TestDeleteUOMBlockedByItems(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	uom, err := svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, ItemRequest{Name: "Sugar", UOMID: uom.ID.String()})
	require.NoError(t, err)

	assert.True(t, apperr.IsReferential(svc.DeleteUOM(ctx, uom.ID)))
}

func TestCreateItemDerivesSKU(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	uom, err := svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram"})
	require.NoError(t, err)

	sugar, err := svc.CreateItem(ctx, ItemRequest{Name: "Sugar", UOMID: uom.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "SGR0001", sugar.SKU)

	// A second consonant-colliding name continues the prefix sequence.
	sagar, err := svc.CreateItem(ctx, ItemRequest{Name: "Sagar Rice", UOMID: uom.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "SGR0002", sagar.SKU)

	tea, err := svc.CreateItem(ctx, ItemRequest{Name: "Tea", UOMID: uom.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "TXX0001", tea.SKU)

	_, err = svc.CreateItem(ctx, ItemRequest{Name: "", UOMID: "nope"})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, v.Violations, 2)
}

func TestUpdateItemKeepsSKU(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	uom, err := svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram"})
	require.NoError(t, err)
	item, err := svc.CreateItem(ctx, ItemRequest{Name: "Sugar", UOMID: uom.ID.String()})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, item.ID, ItemRequest{Name: "Brown Sugar", UOMID: uom.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Brown Sugar", updated.Name)
	assert.Equal(t, "SGR0001", updated.SKU)
}

func TestDeleteItemBlockedByOrderLines(t *testing.T) {
	svc, store, ctx := newMasterDataFixture(t)

	uom, err := svc.CreateUOM(ctx, UOMRequest{ShortCode: "Kg", Name: "Kilogram"})
	require.NoError(t, err)
	item, err := svc.CreateItem(ctx, ItemRequest{Name: "Sugar", UOMID: uom.ID.String()})
	require.NoError(t, err)

	orders := memory.NewPurchaseOrderRepository(store)
	po := &model.PurchaseOrder{PONumber: "PO-010326-001", Status: "Draft"}
	require.NoError(t, orders.Create(ctx, po, []model.PurchaseOrderLineItem{
		{ItemID: item.ID, LineNumber: 1},
	}))

	assert.True(t, apperr.IsReferential(svc.DeleteItem(ctx, item.ID)))
}

func TestCreateWarehouseHierarchy(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	wh, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Main", NodeType: model.NodeTypeWarehouse})
	require.NoError(t, err)
	assert.Equal(t, "WH001", wh.NodeID)
	assert.Nil(t, wh.ParentID)

	aisle, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Aisle 1", NodeType: model.NodeTypeAisle, ParentID: wh.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "AI001", aisle.NodeID)
	require.NotNil(t, aisle.ParentID)
	assert.Equal(t, wh.ID, *aisle.ParentID)

	// Sequences are independent per node type.
	second, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Overflow", NodeType: model.NodeTypeWarehouse})
	require.NoError(t, err)
	assert.Equal(t, "WH002", second.NodeID)

	roots, err := svc.ListRootWarehouses(ctx)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestCreateWarehouseValidatesParenting(t *testing.T) {
	svc, _, ctx := newMasterDataFixture(t)

	wh, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Main", NodeType: model.NodeTypeWarehouse})
	require.NoError(t, err)

	_, err = svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Nested", NodeType: model.NodeTypeWarehouse, ParentID: wh.ID.String()})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "a top-level warehouse cannot have a parent")

	_, err = svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Orphan Rack", NodeType: model.NodeTypeRack})
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "a Rack node requires a parent")

	_, err = svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Lost Bin", NodeType: model.NodeTypeBin, ParentID: uuid.NewString()})
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "does not exist")

	_, err = svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Shed", NodeType: "Shed"})
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `unknown node type "Shed"`)
}

func TestDeleteWarehouseBlockedByChildrenAndOrders(t *testing.T) {
	svc, store, ctx := newMasterDataFixture(t)

	wh, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Main", NodeType: model.NodeTypeWarehouse})
	require.NoError(t, err)
	aisle, err := svc.CreateWarehouse(ctx, WarehouseRequest{Name: "Aisle 1", NodeType: model.NodeTypeAisle, ParentID: wh.ID.String()})
	require.NoError(t, err)

	assert.True(t, apperr.IsReferential(svc.DeleteWarehouse(ctx, wh.ID)))
	require.NoError(t, svc.DeleteWarehouse(ctx, aisle.ID))

	orders := memory.NewPurchaseOrderRepository(store)
	po := &model.PurchaseOrder{PONumber: "PO-010326-001", WarehouseID: wh.ID, Status: "Draft"}
	require.NoError(t, orders.Create(ctx, po, nil))

	assert.True(t, apperr.IsReferential(svc.DeleteWarehouse(ctx, wh.ID)))
}
