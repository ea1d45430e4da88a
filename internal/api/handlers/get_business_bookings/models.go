package get_business_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// ToServiceRequest собирает фильтр из query параметров
// workerId, serviceId, customerId, status, from, to, limit, offset
func ToServiceRequest(r *http.Request, businessID int64) (*models.ListBusinessBookingsRequest, error) {
	req := &models.ListBusinessBookingsRequest{
		BusinessProfileID: businessID,
		Status:            handlers.QueryString(r, "status"),
	}

	var err error
	if req.WorkerID, err = handlers.QueryInt64(r, "workerId"); err != nil {
		return nil, err
	}
	if req.ServiceID, err = handlers.QueryInt64(r, "serviceId"); err != nil {
		return nil, err
	}
	if req.CustomerID, err = handlers.QueryInt64(r, "customerId"); err != nil {
		return nil, err
	}
	if req.From, err = handlers.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if req.To, err = handlers.QueryTime(r, "to"); err != nil {
		return nil, err
	}
	if req.Limit, err = handlers.QueryInt(r, "limit"); err != nil {
		return nil, err
	}
	if req.Offset, err = handlers.QueryInt(r, "offset"); err != nil {
		return nil, err
	}
	return req, nil
}
