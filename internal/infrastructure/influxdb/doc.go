// Package influxdb mirrors device readings into InfluxDB.
//
// Each reading becomes one point in the device_data measurement, tagged
// with device_id, with one field per numeric or boolean value. Writes are
// batched and non-blocking according to influxdb.batch_size and
// influxdb.flush_interval; the document store remains the source of truth.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceData("weather-1", map[string]any{"temp": 21.5}, time.Now())
package influxdb
