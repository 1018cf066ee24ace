package eventmodels

import "fmt"

var EventDatesNotInDataErr = fmt.Errorf("some event dates are not present in data, align data and events first")
var InvalidWindowErr = fmt.Errorf("event window must satisfy start <= 0 <= end")
var InvalidEventDateIndexErr = fmt.Errorf("event date index must be 0 or 1")
var NoCommonColumnsErr = fmt.Errorf("data and events have no columns in common")
var NotEnoughDataToBootstrapErr = fmt.Errorf("not enough observations outside event windows to bootstrap")
var UnknownColumnErr = fmt.Errorf("unknown column")
var UnknownCurrencyErr = fmt.Errorf("unknown currency")
var InvalidCurrencyPairErr = fmt.Errorf("invalid currency pair")
var MissingSheetErr = fmt.Errorf("sheet not found in workbook")
var NoDataSourceErr = fmt.Errorf("no fx data source configured")
var InvalidConfidenceErr = fmt.Errorf("confidence must be between 0 and 1")
