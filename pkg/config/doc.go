// Package config reads SD engine configurations from YAML files.
//
// Durations are written as Go duration strings ("100ms", "1s"). Ids,
// connections and routing groups accept decimal or hexadecimal numbers;
// "any" selects the wildcard of an id and "none" leaves a connection or
// routing group unused. Omitted settings take the defaults of package sd.
//
//	main_function_cycle: 10ms
//	instances:
//	  - name: eth0
//	    unicast_conn: 1
//	    multicast_conn: 2
//	    servers:
//	      - name: brake
//	        service_id: 0x1234
//	        instance_id: 1
//	        major_version: 1
//	        udp_conn: 10
//	        auto_available: true
package config
