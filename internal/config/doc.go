// Package config loads kinesis.json or kinesis.yaml from a project
// directory.
//
// # Configuration File Structure
//
//	{
//	  "app": "counter",
//	  "server": {
//	    "addr": "localhost:8080",
//	    "socketPath": "/ws",
//	    "readLimit": 65536,
//	    "writeTimeout": "10s"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "kinesis",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "tracerName": "kinesis"
//	  },
//	  "snapshot": {
//	    "target": "s3",
//	    "bucket": "my-bucket",
//	    "prefix": "snapshots/"
//	  }
//	}
//
// The same structure is accepted as YAML.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
